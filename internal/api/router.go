package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	catalogHandler "mise-planner/internal/api/handlers/catalog"
	"mise-planner/internal/api/handlers/health"
	"mise-planner/internal/api/handlers/plan"
	recipeHandler "mise-planner/internal/api/handlers/recipe"
	"mise-planner/internal/api/middleware"
	"mise-planner/internal/app"
	"mise-planner/internal/core/cache"
	"mise-planner/internal/infrastructure/config"
	"mise-planner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 一般請求超時；批次路由不受此限制
	timeoutDuration = 30 * time.Second
	// 請求體大小限制 (1MB)
	maxBodySize = 1 << 20
)

// requestTimeout 為請求加上期限，逾時返回 504
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", d),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrGatewayTimeout.Response(false))
		}
	}
}

// SetupRouter 設置路由；db 可為 nil（就緒檢查直接通過）
func SetupRouter(cfg *config.Config, svc *app.Services, db *sql.DB) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	if cfg.DedupWindow > 0 {
		router.Use(middleware.NewDeduplicator(cfg.DedupWindow).Middleware())
	}

	guard := middleware.NewBatchGuard()

	var stats func() map[string]interface{}
	if m, ok := svc.Cache.(*cache.Manager); ok {
		stats = m.GetStats
	}
	var pinger health.Pinger
	if db != nil {
		pinger = db
	}
	healthHandler := health.NewHandler(cfg.App.Version, pinger, guard, stats)

	// 健康檢查路由
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	api := router.Group("/api/v1")
	{
		// 批次路由：同一時間只允許一個
		recipes := recipeHandler.NewHandler(svc.Orchestrator, svc.CatalogErr, cfg.App.Debug)
		batch := api.Group("/recipes", guard.Middleware())
		{
			batch.POST("/hfresh-import", recipes.HandleImport)
			batch.POST("/auto-classify", recipes.HandleAutoClassify)
			batch.POST("/populate-images", recipes.HandlePopulateImages)
			batch.POST("/populate-quantities", recipes.HandlePopulateQuantities)
		}

		interactive := api.Group("", requestTimeout(timeoutDuration))
		{
			planner := plan.NewHandler(svc.Recipes, svc.History, svc.Picker, cfg.App.Debug)
			interactive.POST("/shop/generate", planner.HandleShop)
			interactive.POST("/today/pick", planner.HandlePick)
			interactive.POST("/history", planner.HandleHistory)

			vocabulary := catalogHandler.NewHandler(svc.Vocabulary, svc.CatalogErr, cfg.App.Debug)
			interactive.GET("/catalog/tags", vocabulary.HandleTags)
			interactive.GET("/catalog/allergens", vocabulary.HandleAllergens)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("catalog_ready", svc.CatalogErr == nil),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router
}
