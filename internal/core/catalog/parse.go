package catalog

import (
	"fmt"

	"mise-planner/internal/pkg/common"
)

// ShapeError 上游回應結構不符預期
type ShapeError struct {
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("catalog response: %s %s", e.Field, e.Reason)
}

func validateItem(field string, item RecipeListItem) error {
	if item.ID <= 0 {
		return &ShapeError{Field: field + ".id", Reason: "must be positive"}
	}
	return nil
}

func parseRecipePage(body []byte) (*RecipePage, error) {
	var page RecipePage
	if err := common.ParseJSONBytes(body, &page); err != nil {
		return nil, &ShapeError{Field: "body", Reason: err.Error()}
	}
	if page.Data == nil {
		return nil, &ShapeError{Field: "data", Reason: "missing"}
	}
	for i, item := range page.Data {
		if err := validateItem(fmt.Sprintf("data[%d]", i), item); err != nil {
			return nil, err
		}
	}
	return &page, nil
}

func parseRecipeDetail(body []byte) (*RecipeDetail, error) {
	var envelope struct {
		Data *RecipeDetail `json:"data"`
	}
	if err := common.ParseJSONBytes(body, &envelope); err != nil {
		return nil, &ShapeError{Field: "body", Reason: err.Error()}
	}
	if envelope.Data == nil {
		return nil, &ShapeError{Field: "data", Reason: "missing"}
	}
	d := envelope.Data
	if err := validateItem("data", d.RecipeListItem); err != nil {
		return nil, err
	}
	if d.Name == "" {
		return nil, &ShapeError{Field: "data.name", Reason: "missing"}
	}
	return d, nil
}

func parseTags(body []byte) ([]Tag, error) {
	var page struct {
		Data []Tag `json:"data"`
	}
	if err := common.ParseJSONBytes(body, &page); err != nil {
		return nil, &ShapeError{Field: "body", Reason: err.Error()}
	}
	if page.Data == nil {
		return nil, &ShapeError{Field: "data", Reason: "missing"}
	}
	return page.Data, nil
}

func parseAllergens(body []byte) ([]Allergen, error) {
	var page struct {
		Data []Allergen `json:"data"`
	}
	if err := common.ParseJSONBytes(body, &page); err != nil {
		return nil, &ShapeError{Field: "body", Reason: err.Error()}
	}
	if page.Data == nil {
		return nil, &ShapeError{Field: "data", Reason: "missing"}
	}
	return page.Data, nil
}

// parseMenu 接受裸物件或 {data: ...} 兩種形式
func parseMenu(body []byte) (*Menu, error) {
	var envelope struct {
		Data *Menu `json:"data"`
	}
	if err := common.ParseJSONBytes(body, &envelope); err != nil {
		return nil, &ShapeError{Field: "body", Reason: err.Error()}
	}
	menu := envelope.Data
	if menu == nil {
		menu = &Menu{}
		if err := common.ParseJSONBytes(body, menu); err != nil {
			return nil, &ShapeError{Field: "body", Reason: err.Error()}
		}
	}
	for i, item := range menu.Recipes {
		if err := validateItem(fmt.Sprintf("recipes[%d]", i), item); err != nil {
			return nil, err
		}
	}
	return menu, nil
}
