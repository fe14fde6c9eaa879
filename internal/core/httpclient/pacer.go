package httpclient

import (
	"context"
	"time"

	"mise-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// SleepFunc 可中斷的等待函數，測試時可替換
type SleepFunc func(ctx context.Context, d time.Duration) error

// Pacer 確保兩次請求之間至少間隔 minInterval
//
// Pacer 只屬於單一 Client，沒有加鎖；同一時間只能有一個批次使用同一個 Client。
type Pacer struct {
	minInterval time.Duration
	last        time.Time
	now         func() time.Time
	sleep       SleepFunc
}

// NewPacer 創建節流器
func NewPacer(minInterval time.Duration) *Pacer {
	return &Pacer{
		minInterval: minInterval,
		now:         time.Now,
		sleep:       SleepContext,
	}
}

// WithClock 替換時間來源與等待函數
func (p *Pacer) WithClock(now func() time.Time, sleep SleepFunc) *Pacer {
	if now != nil {
		p.now = now
	}
	if sleep != nil {
		p.sleep = sleep
	}
	return p
}

// Wait 在必要時等待，並記錄本次請求時間
func (p *Pacer) Wait(ctx context.Context) error {
	if !p.last.IsZero() {
		if wait := p.minInterval - p.now().Sub(p.last); wait > 0 {
			common.LogDebug("節流等待", zap.Duration("wait", wait))
			if err := p.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	p.last = p.now()
	return nil
}

// SleepContext 等待 d，context 取消時提前返回
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
