package middleware

import (
	"sync/atomic"

	"mise-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BatchGuard 同一時間只允許一個批次任務（匯入、分類、回填）。
// 批次共用同一個上游節流器，並行執行會打亂請求間隔。
type BatchGuard struct {
	running atomic.Bool
	current atomic.Value
}

// NewBatchGuard 創建批次守衛
func NewBatchGuard() *BatchGuard {
	return &BatchGuard{}
}

// TryAcquire 嘗試取得執行權
func (g *BatchGuard) TryAcquire(name string) bool {
	if !g.running.CompareAndSwap(false, true) {
		return false
	}
	g.current.Store(name)
	return true
}

// Release 釋放執行權
func (g *BatchGuard) Release() {
	g.current.Store("")
	g.running.Store(false)
}

// Running 目前執行中的批次名稱，沒有時為空字串
func (g *BatchGuard) Running() string {
	if !g.running.Load() {
		return ""
	}
	name, _ := g.current.Load().(string)
	return name
}

// Middleware 已有批次執行時返回 409 BATCH_IN_PROGRESS
func (g *BatchGuard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.FullPath()
		if !g.TryAcquire(name) {
			common.LogWarn("批次任務執行中",
				zap.String("path", name),
				zap.String("running", g.Running()),
			)
			c.AbortWithStatusJSON(common.ErrBatchInProgress.Status, common.ErrBatchInProgress.Response(false))
			return
		}
		defer g.Release()

		c.Next()
	}
}
