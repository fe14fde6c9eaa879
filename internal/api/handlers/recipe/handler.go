package recipe

import (
	"net/http"
	"strings"

	"mise-planner/internal/api/handlers"
	"mise-planner/internal/core/catalog"
	"mise-planner/internal/core/ingest"
	"mise-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 食譜匯入、重新分類與回填
type Handler struct {
	orchestrator *ingest.Orchestrator
	catalogErr   error
	debug        bool
}

// NewHandler 創建處理程序；catalogErr 不為 nil 時需要目錄的路由直接回報該錯誤
func NewHandler(o *ingest.Orchestrator, catalogErr error, debug bool) *Handler {
	return &Handler{orchestrator: o, catalogErr: catalogErr, debug: debug}
}

func (h *Handler) requireCatalog(c *gin.Context) bool {
	if h.catalogErr != nil {
		handlers.Error(c, h.catalogErr, h.debug)
		return false
	}
	return true
}

// HandleImport 匯入一頁目錄或某週菜單
//
// POST /api/v1/recipes/hfresh-import?page&perPage&search&tag&menu
func (h *Handler) HandleImport(c *gin.Context) {
	if !h.requireCatalog(c) {
		return
	}
	ctx := c.Request.Context()

	if menu := strings.TrimSpace(c.Query("menu")); menu != "" {
		if len(menu) != 6 {
			handlers.Error(c, common.NewValidationError("menu must be YYYYWW"), h.debug)
			return
		}
		report, err := h.orchestrator.IngestMenu(ctx, menu)
		if err != nil {
			handlers.Error(c, err, h.debug)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "menu": menu, "result": report})
		return
	}

	page, err := handlers.QueryInt(c, "page", 1)
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}
	perPage, err := handlers.QueryInt(c, "perPage", 50)
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}
	tag, err := handlers.QueryInt(c, "tag", 0)
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	report, err := h.orchestrator.IngestPage(ctx, catalog.ListOptions{
		Search:  strings.TrimSpace(c.Query("search")),
		Tag:     tag,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	common.LogInfo("匯入完成",
		zap.Int("page", report.Page),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)),
	)
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": report})
}

// HandleAutoClassify 重新推斷標籤
//
// POST /api/v1/recipes/auto-classify?ids&dryRun
func (h *Handler) HandleAutoClassify(c *gin.Context) {
	dryRun := c.Query("dryRun") == "true"
	report, err := h.orchestrator.Classify(c.Request.Context(), handlers.QueryList(c, "ids"), dryRun)
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": report})
}
