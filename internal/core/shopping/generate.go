package shopping

import (
	"context"
	"fmt"

	"mise-planner/internal/core/planner"
	"mise-planner/internal/core/recipe"
)

// BuildList 讀取指定食譜並產生購物清單；一道食譜時等同 BuildForRecipe。
// 找不到任何食譜時返回 recipe.ErrNotFound。
func BuildList(ctx context.Context, recipes planner.RecipeLister, ids []string, s planner.Settings, pantry PantrySet) ([]Item, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	list, err := recipes.List(ctx, recipe.Filter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if len(list) == 0 {
		return nil, recipe.ErrNotFound
	}

	var items []Item
	if len(list) == 1 {
		items = BuildForRecipe(&list[0], s, pantry)
	} else {
		items = BuildForMany(list, s, pantry)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}
