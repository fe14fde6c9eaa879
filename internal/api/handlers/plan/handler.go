// Package plan 購物清單、今日推薦與烹飪紀錄的處理程序
package plan

import (
	"encoding/json"
	"net/http"
	"time"

	"mise-planner/internal/api/handlers"
	"mise-planner/internal/core/planner"
	"mise-planner/internal/core/recipe"
	"mise-planner/internal/core/shopping"
	"mise-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 規劃相關處理程序
type Handler struct {
	recipes recipe.Repository
	history recipe.HistoryRepository
	picker  *planner.Picker
	now     func() time.Time
	debug   bool
}

// NewHandler 創建處理程序
func NewHandler(recipes recipe.Repository, history recipe.HistoryRepository, picker *planner.Picker, debug bool) *Handler {
	return &Handler{recipes: recipes, history: history, picker: picker, now: time.Now, debug: debug}
}

// ShopRequest 產生購物清單
type ShopRequest struct {
	RecipeIDs []string        `json:"recipe_ids" binding:"required,min=1"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	Pantry    []string        `json:"pantry,omitempty"`
}

// PickRequest 今日推薦
type PickRequest struct {
	Settings json.RawMessage `json:"settings,omitempty"`
}

// HistoryRequest 標記已煮過
type HistoryRequest struct {
	RecipeID string     `json:"recipe_id" binding:"required"`
	CookedAt *time.Time `json:"cooked_at,omitempty"`
}

// settingsFrom 以預設設定為底，覆寫請求中提供的欄位
func settingsFrom(raw json.RawMessage) (planner.Settings, error) {
	s := planner.DefaultSettings()
	if len(raw) > 0 && string(raw) != "null" {
		if err := common.ParseJSONBytes(raw, &s); err != nil {
			return s, common.NewValidationError("invalid settings: " + err.Error())
		}
	}
	return s, s.Validate()
}

func (h *Handler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		handlers.Error(c, common.NewValidationError("invalid request format: "+err.Error()), h.debug)
		return false
	}
	return true
}

// HandleShop 產生購物清單
//
// POST /api/v1/shop/generate
func (h *Handler) HandleShop(c *gin.Context) {
	var req ShopRequest
	if !h.bind(c, &req) {
		return
	}
	settings, err := settingsFrom(req.Settings)
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	items, err := shopping.BuildList(c.Request.Context(), h.recipes, req.RecipeIDs, settings, shopping.NewPantrySet(req.Pantry...))
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	common.LogInfo("購物清單已產生",
		zap.Int("recipes", len(req.RecipeIDs)),
		zap.Int("items", len(items)),
		zap.Bool("double_portions", settings.DoublePortions),
	)
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// HandlePick 挑選今日食譜
//
// POST /api/v1/today/pick
func (h *Handler) HandlePick(c *gin.Context) {
	var req PickRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	settings, err := settingsFrom(req.Settings)
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	picked, err := h.picker.PickToday(c.Request.Context(), h.recipes, h.history, settings, h.now())
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, picked)
}

// HandleHistory 記錄已煮過的食譜
//
// POST /api/v1/history
func (h *Handler) HandleHistory(c *gin.Context) {
	var req HistoryRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.recipes.Get(ctx, req.RecipeID); err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	at := h.now()
	if req.CookedAt != nil {
		at = *req.CookedAt
	}
	entry, err := h.history.MarkCooked(ctx, req.RecipeID, at)
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
