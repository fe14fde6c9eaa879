package catalog

// Label 食譜標籤（如 Premium）
type Label struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Tag 目錄標籤
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Allergen 目錄過敏原
type Allergen struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RecipeListItem 列表中的食譜摘要
type RecipeListItem struct {
	ID          int    `json:"id"`
	CanonicalID *int   `json:"canonical_id"`
	Published   bool   `json:"published"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Headline    string `json:"headline"`
	Difficulty  int    `json:"difficulty"`
	PrepTime    int    `json:"prep_time"`
	TotalTime   int    `json:"total_time"`
	HasPDF      bool   `json:"has_pdf"`
	Label       *Label `json:"label"`
	Tags        []Tag  `json:"tags"`
}

// SourceID 來源的穩定識別碼，優先使用 canonical_id
func (r RecipeListItem) SourceID() int {
	if r.CanonicalID != nil && *r.CanonicalID > 0 {
		return *r.CanonicalID
	}
	return r.ID
}

// TagNames 標籤名稱列表
func (r RecipeListItem) TagNames() []string {
	names := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		names = append(names, t.Name)
	}
	return names
}

// NutritionItem 營養成分
type NutritionItem struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Unit   string  `json:"unit"`
	Amount float64 `json:"amount"`
}

// NamedRef 只有 id 與名稱的引用
type NamedRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RecipeDetail 食譜詳情
type RecipeDetail struct {
	RecipeListItem
	Description string          `json:"description"`
	PDFURL      *string         `json:"pdf_url"`
	Nutrition   []NutritionItem `json:"nutrition"`
	Allergens   []Allergen      `json:"allergens"`
	Ingredients []NamedRef      `json:"ingredients"`
	Cuisines    []NamedRef      `json:"cuisines"`
	Utensils    []NamedRef      `json:"utensils"`
}

// Meta 分頁資訊
type Meta struct {
	CurrentPage int `json:"current_page"`
	From        int `json:"from"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	To          int `json:"to"`
	Total       int `json:"total"`
}

// RecipePage 一頁食譜列表
type RecipePage struct {
	Data []RecipeListItem `json:"data"`
	Meta Meta             `json:"meta"`
}

// Menu 每週菜單
type Menu struct {
	ID       int              `json:"id"`
	URL      string           `json:"url"`
	YearWeek int              `json:"year_week"`
	Start    string           `json:"start"`
	Recipes  []RecipeListItem `json:"recipes"`
}

// ListOptions 列表查詢參數
type ListOptions struct {
	Search  string
	Tag     int
	Page    int
	PerPage int
}
