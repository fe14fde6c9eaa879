// Package recipe 持久化的食譜、食材與烹飪紀錄
package recipe

import (
	"time"

	"gorm.io/datatypes"
)

// 來源
const (
	SourceHfresh = "hfresh"
	DefaultLang  = "es"
)

// Localized 語言 → 文字
type Localized map[string]string

// Get 取指定語言，缺少時依序回退到 es、ca、任一語言
func (l Localized) Get(lang string) string {
	if v := l[lang]; v != "" {
		return v
	}
	if v := l[DefaultLang]; v != "" {
		return v
	}
	if v := l["ca"]; v != "" {
		return v
	}
	for _, v := range l {
		if v != "" {
			return v
		}
	}
	return ""
}

// Both 同一文字同時作為 es 與 ca
func Both(text string) Localized {
	return Localized{"es": text, "ca": text}
}

// Ingredient 食譜中的一項食材
//
// Qty2/Qty4 為 2 人份與 4 人份的數量，Qty2Text/Qty4Text 為其顯示文字；
// Qty/Unit/QtyText 是舊格式，等同 2 人份。
type Ingredient struct {
	Name     Localized `json:"name"`
	Qty2     *float64  `json:"qty2,omitempty"`
	Unit2    string    `json:"unit2,omitempty"`
	Qty2Text string    `json:"qty2Text,omitempty"`
	Qty4     *float64  `json:"qty4,omitempty"`
	Unit4    string    `json:"unit4,omitempty"`
	Qty4Text string    `json:"qty4Text,omitempty"`
	Qty      *float64  `json:"qty,omitempty"`
	Unit     string    `json:"unit,omitempty"`
	QtyText  string    `json:"qtyText,omitempty"`
	Category string    `json:"category,omitempty"`
	Pantry   bool      `json:"pantry,omitempty"`
}

// HasQuantity 是否帶有任何數量資訊
func (i Ingredient) HasQuantity() bool {
	return i.Qty2Text != "" || i.Qty4Text != "" || (i.Qty != nil && *i.Qty > 0)
}

// Recipe 食譜
type Recipe struct {
	ID          string                                 `gorm:"primaryKey;size:64" json:"id"`
	Title       datatypes.JSONType[Localized]          `json:"title"`
	Description datatypes.JSONType[Localized]          `json:"description"`
	MealType    string                                 `gorm:"size:16" json:"mealType"`
	TimeMin     int                                    `json:"timeMin"`
	CostTier    int                                    `json:"costTier"`
	Difficulty  string                                 `gorm:"size:16" json:"difficulty"`
	Tags        datatypes.JSONSlice[string]            `json:"tags"`
	Ingredients datatypes.JSONSlice[Ingredient]        `json:"ingredients"`
	Steps       datatypes.JSONType[map[string][]string] `json:"steps"`
	ImageURL    *string                                `json:"imageUrl,omitempty"`
	StepImages  datatypes.JSONSlice[string]            `json:"stepImages,omitempty"`
	Nutrition   datatypes.JSONType[map[string]float64] `json:"nutrition,omitempty"`
	Allergens   datatypes.JSONSlice[string]            `json:"allergens,omitempty"`
	Source      string                                 `gorm:"size:32;index:idx_recipes_source" json:"source"`
	SourceID    string                                 `gorm:"size:64;index:idx_recipes_source" json:"sourceId"`
	Active      bool                                   `json:"active"`
	CreatedAt   time.Time                              `json:"createdAt"`
	UpdatedAt   time.Time                              `json:"updatedAt"`
}

// TitleIn 指定語言的標題
func (r *Recipe) TitleIn(lang string) string {
	return r.Title.Data().Get(lang)
}

// IngredientNames 所有食材的 es 與 ca 名稱，供標籤推斷使用
func (r *Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients)*2)
	for _, ing := range r.Ingredients {
		if es := ing.Name["es"]; es != "" {
			names = append(names, es)
		}
		if ca := ing.Name["ca"]; ca != "" {
			names = append(names, ca)
		}
	}
	return names
}

// CookHistoryEntry 烹飪紀錄，只新增不修改
type CookHistoryEntry struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	RecipeID string    `gorm:"size:64;index" json:"recipeId"`
	CookedAt time.Time `gorm:"index" json:"cookedAt"`
}
