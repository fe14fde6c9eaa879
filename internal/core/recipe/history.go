package recipe

import (
	"context"
	"time"

	"mise-planner/internal/pkg/common"

	"gorm.io/gorm"
)

type (
	// HistoryRepository 烹飪紀錄存取
	HistoryRepository interface {
		MarkCooked(ctx context.Context, recipeID string, at time.Time) (*CookHistoryEntry, error)
		Since(ctx context.Context, since time.Time) ([]CookHistoryEntry, error)
	}

	historyRepository struct {
		db *gorm.DB
	}
)

// NewHistoryRepository 創建烹飪紀錄存取
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// MarkCooked 新增一筆烹飪紀錄
func (r *historyRepository) MarkCooked(ctx context.Context, recipeID string, at time.Time) (*CookHistoryEntry, error) {
	entry := &CookHistoryEntry{
		ID:       common.GenerateUUID(),
		RecipeID: recipeID,
		CookedAt: at.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Since 列出 since 之後（含）的紀錄，最新在前
func (r *historyRepository) Since(ctx context.Context, since time.Time) ([]CookHistoryEntry, error) {
	var entries []CookHistoryEntry
	err := r.db.WithContext(ctx).
		Where("cooked_at >= ?", since.UTC()).
		Order("cooked_at desc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
