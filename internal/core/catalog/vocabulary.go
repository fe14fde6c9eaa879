package catalog

import (
	"context"
	"encoding/json"
	"errors"

	"mise-planner/internal/core/cache"
	"mise-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// VocabularySource 提供標籤與過敏原詞彙
type VocabularySource interface {
	GetTags(ctx context.Context) ([]Tag, error)
	GetAllergens(ctx context.Context) ([]Allergen, error)
}

// Vocabulary 以緩存包裝詞彙查詢，store 為 nil 時直接查詢上游
type Vocabulary struct {
	src    VocabularySource
	store  cache.Store
	locale string
}

// NewVocabulary 創建詞彙查詢
func NewVocabulary(src VocabularySource, store cache.Store, locale string) *Vocabulary {
	return &Vocabulary{src: src, store: store, locale: locale}
}

// Tags 標籤詞彙
func (v *Vocabulary) Tags(ctx context.Context) ([]Tag, error) {
	return cached(ctx, v, "catalog:tags:"+v.locale, v.src.GetTags)
}

// Allergens 過敏原詞彙
func (v *Vocabulary) Allergens(ctx context.Context) ([]Allergen, error) {
	return cached(ctx, v, "catalog:allergens:"+v.locale, v.src.GetAllergens)
}

func cached[T any](ctx context.Context, v *Vocabulary, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if v.store != nil {
		data, err := v.store.Get(ctx, key)
		if err == nil {
			var out []T
			if err := common.ParseJSONBytes(data, &out); err == nil {
				return out, nil
			}
			common.LogWarn("詞彙緩存內容無效", zap.String("key", key))
		} else if !errors.Is(err, cache.ErrMiss) {
			common.LogWarn("讀取詞彙緩存失敗", zap.String("key", key), zap.Error(err))
		}
	}

	out, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if v.store != nil {
		if data, err := json.Marshal(out); err == nil {
			if err := v.store.Set(ctx, key, data); err != nil {
				common.LogWarn("寫入詞彙緩存失敗", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return out, nil
}
