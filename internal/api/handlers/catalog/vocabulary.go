// Package catalog 目錄詞彙查詢處理程序
package catalog

import (
	"net/http"

	"mise-planner/internal/api/handlers"
	core "mise-planner/internal/core/catalog"
	"mise-planner/internal/core/tags"

	"github.com/gin-gonic/gin"
)

// Handler 詞彙查詢
type Handler struct {
	vocabulary *core.Vocabulary
	catalogErr error
	debug      bool
}

// NewHandler 創建處理程序
func NewHandler(v *core.Vocabulary, catalogErr error, debug bool) *Handler {
	return &Handler{vocabulary: v, catalogErr: catalogErr, debug: debug}
}

// taggedTag 目錄標籤及其對應的內部標籤
type taggedTag struct {
	core.Tag
	Slug string `json:"slug,omitempty"`
}

// HandleTags 目錄標籤詞彙
//
// GET /api/v1/catalog/tags
func (h *Handler) HandleTags(c *gin.Context) {
	if h.catalogErr != nil {
		handlers.Error(c, h.catalogErr, h.debug)
		return
	}
	list, err := h.vocabulary.Tags(c.Request.Context())
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	out := make([]taggedTag, 0, len(list))
	for _, t := range list {
		tt := taggedTag{Tag: t}
		if slugs := tags.MapCatalogTags([]string{t.Name}); len(slugs) > 0 {
			tt.Slug = slugs[0]
		}
		out = append(out, tt)
	}
	c.JSON(http.StatusOK, gin.H{"tags": out})
}

// HandleAllergens 目錄過敏原詞彙
//
// GET /api/v1/catalog/allergens
func (h *Handler) HandleAllergens(c *gin.Context) {
	if h.catalogErr != nil {
		handlers.Error(c, h.catalogErr, h.debug)
		return
	}
	list, err := h.vocabulary.Allergens(c.Request.Context())
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allergens": list})
}
