package recipe

import (
	"context"
	"net/http"

	"mise-planner/internal/api/handlers"
	"mise-planner/internal/core/ingest"
	"mise-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type backfillFunc func(ctx context.Context, limit int, emit ingest.EmitFunc) (*ingest.Summary, error)

// streamError 串流中途失敗時輸出的最後一筆記錄
type streamError struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// stream 以 NDJSON 逐筆輸出回填進度
func (h *Handler) stream(c *gin.Context, kind string, run backfillFunc) {
	if !h.requireCatalog(c) {
		return
	}
	limit, err := handlers.QueryInt(c, "limit", 0)
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}
	if limit < 0 {
		handlers.Error(c, common.NewValidationError("limit must not be negative"), h.debug)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	w := common.NewNDJSONWriter(c.Writer, c.Writer.Flush)
	_, err = run(c.Request.Context(), limit, func(p ingest.Progress) error {
		return w.Write(p)
	})
	if err == nil {
		return
	}

	common.LogWarn("回填中止", zap.String("kind", kind), zap.Error(err))
	if c.Request.Context().Err() != nil {
		return
	}
	resp := handlers.Classify(err).Response(h.debug)
	_ = w.Write(streamError{Event: "error", Code: resp.Code, Message: resp.Message, Details: resp.Details})
}

// HandlePopulateImages 回填預覽圖
//
// POST /api/v1/recipes/populate-images?limit
func (h *Handler) HandlePopulateImages(c *gin.Context) {
	h.stream(c, "images", h.orchestrator.BackfillImages)
}

// HandlePopulateQuantities 回填食材數量
//
// POST /api/v1/recipes/populate-quantities?limit
func (h *Handler) HandlePopulateQuantities(c *gin.Context) {
	h.stream(c, "quantities", h.orchestrator.BackfillQuantities)
}
