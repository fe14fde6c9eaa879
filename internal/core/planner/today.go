package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mise-planner/internal/core/recipe"
)

// ErrNoEligibleRecipe 沒有符合設定的食譜
var ErrNoEligibleRecipe = errors.New("no eligible recipe for these settings")

// RecipeLister 列出食譜
type RecipeLister interface {
	List(ctx context.Context, f recipe.Filter) ([]recipe.Recipe, error)
}

// HistorySource 讀取烹飪紀錄
type HistorySource interface {
	Since(ctx context.Context, since time.Time) ([]recipe.CookHistoryEntry, error)
}

// PickToday 讀取啟用食譜與不重複期間內的紀錄後挑選一道
func (p *Picker) PickToday(ctx context.Context, recipes RecipeLister, history HistorySource, s Settings, now time.Time) (*recipe.Recipe, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	list, err := recipes.List(ctx, recipe.Filter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	entries, err := history.Since(ctx, now.AddDate(0, 0, -s.NoRepeatDays))
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	picked := p.Pick(list, entries, s, now)
	if picked == nil {
		return nil, ErrNoEligibleRecipe
	}
	return picked, nil
}
