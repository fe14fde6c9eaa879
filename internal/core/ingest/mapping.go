package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"mise-planner/internal/core/catalog"
	"mise-planner/internal/core/ingredient"
	"mise-planner/internal/core/recipe"
	"mise-planner/internal/core/scraper"
	"mise-planner/internal/core/tags"
	"mise-planner/internal/pkg/common"

	"gorm.io/datatypes"
)

const (
	unknownCategory = "unknown"
	defaultTimeMin  = 30
)

// RecipeID 由來源識別碼推導的穩定 id
func RecipeID(item catalog.RecipeListItem) string {
	return fmt.Sprintf("hf-%d", item.SourceID())
}

func difficulty(d int) string {
	if d <= 1 {
		return "easy"
	}
	return "normal"
}

func costTier(item catalog.RecipeListItem) int {
	if item.Label != nil && strings.Contains(strings.ToLower(item.Label.Name), "premium") {
		return 3
	}
	return 2
}

func timeMin(item catalog.RecipeListItem) int {
	if item.TotalTime > 0 {
		return item.TotalTime
	}
	if item.PrepTime > 0 {
		return item.PrepTime
	}
	return defaultTimeMin
}

// nutrientKeys 目錄營養名稱關鍵字 → 內部鍵，取第一個命中的項目
var nutrientKeys = []struct {
	keyword string
	key     string
}{
	{"kcal", "calories"},
	{"grasa", "fat"},
	{"proteina", "protein"},
	{"carbohidrato", "carbs"},
	{"fibra", "fiber"},
}

func nutrition(items []catalog.NutritionItem) map[string]float64 {
	out := make(map[string]float64)
	for _, nk := range nutrientKeys {
		for _, it := range items {
			if strings.Contains(strings.ToLower(common.StripAccents(it.Name)), nk.keyword) {
				out[nk.key] = it.Amount
				break
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func allergenNames(allergens []catalog.Allergen) []string {
	if len(allergens) == 0 {
		return nil
	}
	names := make([]string, 0, len(allergens))
	for _, a := range allergens {
		names = append(names, a.Name)
	}
	return names
}

// matchExisting 依名稱找出既有食材（相等或互相包含），沿用其名稱、分類與常備標記
func matchExisting(name string, existing []recipe.Ingredient) *recipe.Ingredient {
	lower := strings.ToLower(name)
	for i := range existing {
		eName := strings.ToLower(existing[i].Name[recipe.DefaultLang])
		if eName == "" {
			continue
		}
		if eName == lower || strings.Contains(lower, eName) || strings.Contains(eName, lower) {
			return &existing[i]
		}
	}
	return nil
}

// fromScraped 將抓取到的食材換算成 2/4 人份；舊欄位等同 2 人份
func fromScraped(parsed []ingredient.Parsed, base int, existing []recipe.Ingredient) []recipe.Ingredient {
	out := make([]recipe.Ingredient, 0, len(parsed))
	for _, p := range parsed {
		ing := recipe.Ingredient{
			Name:     recipe.Both(p.Name),
			Category: unknownCategory,
		}
		if prev := matchExisting(p.Name, existing); prev != nil {
			ing.Name = prev.Name
			if prev.Category != "" {
				ing.Category = prev.Category
			}
			ing.Pantry = prev.Pantry
		}

		if sc, ok := ingredient.ScaleServings(p, base); ok {
			qty2, qty4 := sc.Qty2, sc.Qty4
			ing.Qty2, ing.Unit2, ing.Qty2Text = &qty2, sc.Unit, sc.Qty2Text
			ing.Qty4, ing.Unit4, ing.Qty4Text = &qty4, sc.Unit, sc.Qty4Text
			legacy := qty2
			ing.Qty, ing.Unit, ing.QtyText = &legacy, sc.Unit, sc.Qty2Text
		}
		out = append(out, ing)
	}
	return out
}

func fromCatalog(refs []catalog.NamedRef) []recipe.Ingredient {
	out := make([]recipe.Ingredient, 0, len(refs))
	for _, ref := range refs {
		out = append(out, recipe.Ingredient{Name: recipe.Both(ref.Name), Category: unknownCategory})
	}
	return out
}

// buildRecipe 組合目錄資料與抓取結果；有抓到食材時優先使用（帶數量）
func buildRecipe(item catalog.RecipeListItem, detail *catalog.RecipeDetail, page scraper.Page, imageURL string) *recipe.Recipe {
	var ingredients []recipe.Ingredient
	if len(page.Ingredients) > 0 {
		ingredients = fromScraped(page.Ingredients, page.BaseServings, nil)
	} else {
		ingredients = fromCatalog(detail.Ingredients)
	}

	description := detail.Description
	if description == "" {
		description = item.Headline
	}

	steps := page.Steps
	if steps == nil {
		steps = []string{}
	}

	r := &recipe.Recipe{
		ID:          RecipeID(item),
		Title:       datatypes.NewJSONType(recipe.Both(item.Name)),
		Description: datatypes.NewJSONType(recipe.Both(description)),
		MealType:    "main",
		TimeMin:     timeMin(item),
		CostTier:    costTier(item),
		Difficulty:  difficulty(item.Difficulty),
		Ingredients: datatypes.NewJSONSlice(ingredients),
		Steps:       datatypes.NewJSONType(map[string][]string{"es": steps, "ca": steps}),
		Nutrition:   datatypes.NewJSONType(nutrition(detail.Nutrition)),
		Allergens:   datatypes.NewJSONSlice(allergenNames(detail.Allergens)),
		Source:      recipe.SourceHfresh,
		SourceID:    strconv.Itoa(item.SourceID()),
		Active:      true,
	}
	if imageURL != "" {
		r.ImageURL = &imageURL
	}
	if len(page.StepImages) > 0 {
		r.StepImages = datatypes.NewJSONSlice(page.StepImages)
	}

	r.Tags = datatypes.NewJSONSlice(tags.Classify(r.IngredientNames(), item.Name, detail.TagNames()))
	return r
}
