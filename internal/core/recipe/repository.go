package recipe

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = errors.New("recipe not found")
	ErrAlreadyExists = errors.New("recipe already exists")
)

// Filter 列表查詢條件，零值表示不限制
type Filter struct {
	IDs          []string
	Source       string
	ActiveOnly   bool
	MissingImage bool
	Limit        int
}

type (
	// Repository 食譜存取
	Repository interface {
		Exists(ctx context.Context, id string) (bool, error)
		Create(ctx context.Context, r *Recipe) error
		Get(ctx context.Context, id string) (*Recipe, error)
		List(ctx context.Context, f Filter) ([]Recipe, error)
		UpdateTags(ctx context.Context, id string, tags []string) error
		UpdateImages(ctx context.Context, id string, imageURL string, stepImages []string) error
		UpdateIngredients(ctx context.Context, id string, ingredients []Ingredient) error
		SetActive(ctx context.Context, id string, active bool) error
	}

	repository struct {
		db *gorm.DB
	}
)

// AutoMigrate 建立或更新資料表
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Recipe{}, &CookHistoryEntry{}); err != nil {
		return fmt.Errorf("migrate recipes: %w", err)
	}
	return nil
}

// NewRepository 創建食譜存取
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Recipe{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 新增食譜；id 已存在時返回 ErrAlreadyExists 且不覆寫
func (r *repository) Create(ctx context.Context, rec *Recipe) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id string) (*Recipe, error) {
	var rec Recipe
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *repository) List(ctx context.Context, f Filter) ([]Recipe, error) {
	q := r.db.WithContext(ctx).Model(&Recipe{})
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	if f.Source != "" {
		q = q.Where("source = ?", f.Source)
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if f.MissingImage {
		q = q.Where("(image_url IS NULL OR image_url = '' OR image_url LIKE ?)", "%unsplash%")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var recipes []Recipe
	if err := q.Order("id").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *repository) update(ctx context.Context, id string, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&Recipe{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateTags(ctx context.Context, id string, tags []string) error {
	return r.update(ctx, id, map[string]interface{}{"tags": datatypes.NewJSONSlice(tags)})
}

func (r *repository) UpdateImages(ctx context.Context, id string, imageURL string, stepImages []string) error {
	values := map[string]interface{}{"image_url": imageURL}
	if len(stepImages) > 0 {
		values["step_images"] = datatypes.NewJSONSlice(stepImages)
	}
	return r.update(ctx, id, values)
}

func (r *repository) UpdateIngredients(ctx context.Context, id string, ingredients []Ingredient) error {
	return r.update(ctx, id, map[string]interface{}{"ingredients": datatypes.NewJSONSlice(ingredients)})
}

// SetActive 軟停用或重新啟用，食譜不會被刪除
func (r *repository) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, id, map[string]interface{}{"active": active})
}
