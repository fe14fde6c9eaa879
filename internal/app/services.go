// Package app 依設定組裝核心服務，供 HTTP 服務與命令列工具共用
package app

import (
	"errors"

	"mise-planner/internal/core/cache"
	"mise-planner/internal/core/catalog"
	"mise-planner/internal/core/httpclient"
	"mise-planner/internal/core/imageprobe"
	"mise-planner/internal/core/ingest"
	"mise-planner/internal/core/planner"
	"mise-planner/internal/core/recipe"
	"mise-planner/internal/core/scraper"
	"mise-planner/internal/infrastructure/config"
	"mise-planner/internal/pkg/common"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 組裝好的核心服務
type Services struct {
	// Catalog 在 token 缺失時為 nil，CatalogErr 說明原因
	Catalog      *catalog.Client
	CatalogErr   error
	Vocabulary   *catalog.Vocabulary
	Scraper      *scraper.Scraper
	Orchestrator *ingest.Orchestrator
	Recipes      recipe.Repository
	History      recipe.HistoryRepository
	Picker       *planner.Picker
	Cache        cache.Store
}

// NewServices 組裝服務。缺少目錄 token 不會失敗：不需要目錄的功能仍可使用。
// 目錄與頁面抓取共用同一個節流客戶端，因此同時只能執行一個批次。
func NewServices(cfg *config.Config, db *gorm.DB, store cache.Store) (*Services, error) {
	hc := httpclient.New(httpclient.Options{
		MinInterval: cfg.Catalog.MinInterval,
		MaxRetries:  cfg.Catalog.MaxRetries,
		Backoff:     cfg.Catalog.Backoff,
		Timeout:     cfg.Catalog.Timeout,
	})

	s := &Services{
		Recipes: recipe.NewRepository(db),
		History: recipe.NewHistoryRepository(db),
		Picker:  planner.NewPicker(nil),
		Scraper: scraper.New(hc, cfg.Scraper),
		Cache:   store,
	}

	var cat ingest.Catalog
	client, err := catalog.New(cfg.Catalog, hc)
	switch {
	case errors.Is(err, catalog.ErrMissingToken):
		common.LogWarn("目錄 token 未設定，匯入與回填功能停用")
		s.CatalogErr = err
	case err != nil:
		return nil, err
	default:
		s.Catalog = client
		s.Vocabulary = catalog.NewVocabulary(client, store, client.Locale())
		cat = client
	}

	s.Orchestrator = ingest.New(cat, s.Scraper, s.Recipes, cfg.Ingest)
	if cfg.Image.Verify {
		probeClient := httpclient.New(httpclient.Options{Timeout: cfg.Catalog.Timeout})
		s.Orchestrator.WithImageVerifier(imageprobe.New(probeClient, cfg.Image.MaxSizeBytes))
	}

	common.LogInfo("服務初始化完成",
		zap.Bool("catalog_ready", s.Catalog != nil),
		zap.Bool("cache_enabled", store != nil),
		zap.Bool("image_verify", cfg.Image.Verify),
		zap.String("locale", cfg.Catalog.Locale),
	)
	return s, nil
}
