// Package shopping 將一道或多道食譜的食材合併成購物清單
package shopping

import (
	"sort"
	"strings"

	"mise-planner/internal/core/ingredient"
	"mise-planner/internal/core/planner"
	"mise-planner/internal/core/recipe"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Item 購物清單項目，同一次產生中每個 Key 最多一項
type Item struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Qty      *float64 `json:"qty,omitempty"`
	QtyText  string   `json:"qtyText,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Category string   `json:"category"`
	Checked  bool     `json:"checked"`
}

// PantrySet 家庭常備食材的合併鍵
type PantrySet map[string]bool

// NewPantrySet 以顯示名稱建立常備集合
func NewPantrySet(names ...string) PantrySet {
	set := make(PantrySet, len(names))
	for _, n := range names {
		if key := ingredient.Canonicalize(n); key != "" {
			set[key] = true
		}
	}
	return set
}

// list 保持首次出現順序的清單
type list struct {
	order []string
	items map[string]*Item
}

func newList() *list {
	return &list{items: make(map[string]*Item)}
}

// add 文字數量先到先得不相加；數值數量在前一項也是數值時相加
func (l *list) add(it Item) {
	prev, ok := l.items[it.Key]
	if !ok {
		cp := it
		l.items[it.Key] = &cp
		l.order = append(l.order, it.Key)
		return
	}
	if prev.Qty != nil && it.Qty != nil {
		sum := ingredient.Round1(*prev.Qty + *it.Qty)
		prev.Qty = &sum
	}
}

func (l *list) sorted() []Item {
	out := make([]Item, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, *l.items[k])
	}
	// Collator 不可併發使用，每次排序各建一個
	col := collate.New(language.Spanish, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

func displayName(ing recipe.Ingredient, lang string) string {
	if name := strings.TrimSpace(ing.Name[lang]); name != "" {
		return name
	}
	return strings.TrimSpace(ing.Name[recipe.DefaultLang])
}

func category(ing recipe.Ingredient) string {
	if ing.Category == "" {
		return "unknown"
	}
	return ing.Category
}

func collect(l *list, r *recipe.Recipe, s planner.Settings, pantry PantrySet) {
	multiplier := 1.0
	if s.DoublePortions {
		multiplier = 2
	}

	for _, ing := range r.Ingredients {
		name := displayName(ing, s.Lang)
		if name == "" {
			continue
		}

		key := ingredient.Canonicalize(name)
		if ingredient.StapleKeys[key] {
			continue
		}
		if ing.Pantry || pantry[key] {
			continue
		}

		text := ing.Qty2Text
		if s.DoublePortions {
			text = ing.Qty4Text
		}
		if text != "" {
			l.add(Item{Key: key, Name: name, QtyText: text, Category: category(ing)})
			continue
		}

		if ing.Qty == nil || *ing.Qty == 0 {
			continue
		}
		qty := *ing.Qty * multiplier
		l.add(Item{
			Key:      key,
			Name:     name,
			Qty:      &qty,
			Unit:     strings.TrimSpace(ing.Unit),
			Category: category(ing),
		})
	}
}

// BuildForRecipe 單一食譜的購物清單，依分類再依名稱排序
func BuildForRecipe(r *recipe.Recipe, s planner.Settings, pantry PantrySet) []Item {
	l := newList()
	collect(l, r, s, pantry)
	return l.sorted()
}

// BuildForMany 多道食譜的購物清單；相同鍵的數值數量跨食譜相加，文字數量保留第一個
func BuildForMany(recipes []recipe.Recipe, s planner.Settings, pantry PantrySet) []Item {
	l := newList()
	for i := range recipes {
		single := newList()
		collect(single, &recipes[i], s, pantry)
		for _, k := range single.order {
			l.add(*single.items[k])
		}
	}
	return l.sorted()
}
