package handlers

import (
	"errors"
	"strconv"
	"strings"

	"mise-planner/internal/core/catalog"
	"mise-planner/internal/core/planner"
	"mise-planner/internal/core/recipe"
	"mise-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Classify 將核心層錯誤對應到 API 錯誤
func Classify(err error) *common.CustomError {
	var se *catalog.StatusError
	var shape *catalog.ShapeError
	switch {
	case errors.Is(err, catalog.ErrMissingToken):
		return common.ErrMissingToken.Wrap(err)
	case common.IsValidationError(err):
		return common.ErrInvalidRequest.Wrap(err)
	case errors.Is(err, recipe.ErrNotFound):
		return common.ErrNotFound.Wrap(err)
	case errors.Is(err, recipe.ErrAlreadyExists):
		return common.ErrConflict.Wrap(err)
	case errors.Is(err, planner.ErrNoEligibleRecipe):
		return common.ErrNoEligibleRecipe.Wrap(err)
	case errors.As(err, &se), errors.As(err, &shape):
		return common.ErrUpstream.Wrap(err)
	default:
		// CustomError 原樣返回，其餘歸為內部錯誤
		return common.AsCustomError(err)
	}
}

// Error 記錄並回傳錯誤響應；debug 模式附帶原始錯誤
func Error(c *gin.Context, err error, debug bool) {
	ce := Classify(err)
	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
		zap.Error(err),
	}
	if ce.Status >= 500 {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求處理失敗", fields...)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response(debug))
}

// QueryInt 讀取整數查詢參數，缺少時返回 def
func QueryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.NewValidationError("invalid " + key + ": " + raw)
	}
	return v, nil
}

// QueryList 讀取逗號分隔的查詢參數，忽略空項目
func QueryList(c *gin.Context, key string) []string {
	var out []string
	for _, part := range strings.Split(c.Query(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
