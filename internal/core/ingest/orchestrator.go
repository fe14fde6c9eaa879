// Package ingest 將目錄食譜匯入本地資料，並提供標籤、圖片與數量的回填任務。
//
// 一個 Orchestrator 一次只執行一個批次：它與底層 httpclient 共用同一個節流器，
// 同時執行兩個批次會破壞請求間隔。
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mise-planner/internal/core/catalog"
	"mise-planner/internal/core/httpclient"
	"mise-planner/internal/core/imageprobe"
	"mise-planner/internal/core/recipe"
	"mise-planner/internal/core/scraper"
	"mise-planner/internal/infrastructure/config"
	"mise-planner/internal/pkg/common"

	"go.uber.org/zap"
)

const defaultPerPage = 50

// Catalog 匯入所需的目錄操作
type Catalog interface {
	ListRecipes(ctx context.Context, opts catalog.ListOptions) (*catalog.RecipePage, error)
	SearchRecipes(ctx context.Context, query string, opts catalog.ListOptions) (*catalog.RecipePage, error)
	GetRecipeDetail(ctx context.Context, id int) (*catalog.RecipeDetail, error)
	GetMenu(ctx context.Context, yearWeek string) (*catalog.Menu, error)
}

// PageScraper 食譜頁面抓取
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) scraper.Page
}

// ImageVerifier 確認預覽圖可解碼
type ImageVerifier interface {
	Verify(ctx context.Context, imageURL string) (*imageprobe.Info, error)
}

// Failure 匯入失敗的項目
type Failure struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Report 批次匯入結果
type Report struct {
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
	Failed   []Failure `json:"failed,omitempty"`
}

// PageReport 含分頁資訊的匯入結果
type PageReport struct {
	Page         int `json:"page"`
	TotalPages   int `json:"totalPages"`
	TotalRecipes int `json:"totalRecipes"`
	Report
}

// Orchestrator 匯入與回填流程
type Orchestrator struct {
	catalog       Catalog
	scraper       PageScraper
	recipes       recipe.Repository
	probe         ImageVerifier
	itemDelay     time.Duration
	backfillDelay time.Duration
	maxPerPage    int
	sleep         httpclient.SleepFunc
}

// New 創建匯入流程
func New(c Catalog, s PageScraper, repo recipe.Repository, cfg config.IngestConfig) *Orchestrator {
	maxPerPage := cfg.MaxPerPage
	if maxPerPage <= 0 {
		maxPerPage = 200
	}
	return &Orchestrator{
		catalog:       c,
		scraper:       s,
		recipes:       repo,
		itemDelay:     cfg.ItemDelay,
		backfillDelay: cfg.BackfillDelay,
		maxPerPage:    maxPerPage,
		sleep:         httpclient.SleepContext,
	}
}

// WithSleep 替換等待函數（測試用）
func (o *Orchestrator) WithSleep(sleep httpclient.SleepFunc) *Orchestrator {
	o.sleep = sleep
	return o
}

// WithImageVerifier 啟用預覽圖檢查
func (o *Orchestrator) WithImageVerifier(v ImageVerifier) *Orchestrator {
	o.probe = v
	return o
}

// safely 執行單一項目，panic 轉為錯誤
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// IngestBatch 依序匯入每個項目；已存在的 id 計入 skipped 且不覆寫，
// 單一項目失敗只記錄在 Failed，不影響後續項目。
// 只有 ctx 被取消時才返回錯誤，此時 Report 為已完成部分的結果。
func (o *Orchestrator) IngestBatch(ctx context.Context, items []catalog.RecipeListItem) (*Report, error) {
	report := &Report{}
	start := time.Now()

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		id := RecipeID(item)
		exists, err := o.recipes.Exists(ctx, id)
		if err != nil {
			report.Failed = append(report.Failed, Failure{ID: item.ID, Name: item.Name, Reason: err.Error()})
			continue
		}
		if exists {
			report.Skipped++
			continue
		}

		err = safely(func() error { return o.ingestOne(ctx, item) })
		switch {
		case err == nil:
			report.Imported++
		case errors.Is(err, recipe.ErrAlreadyExists):
			report.Skipped++
		default:
			common.LogWarn("食譜匯入失敗",
				zap.String("id", id),
				zap.String("name", item.Name),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, Failure{ID: item.ID, Name: item.Name, Reason: err.Error()})
		}

		if err := o.sleep(ctx, o.itemDelay); err != nil {
			return report, err
		}
	}

	common.LogInfo("Ingestion batch finished",
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("耗時", time.Since(start)),
	)
	return report, nil
}

func (o *Orchestrator) ingestOne(ctx context.Context, item catalog.RecipeListItem) error {
	detail, err := o.catalog.GetRecipeDetail(ctx, item.ID)
	if err != nil {
		return err
	}

	page := o.scraper.Scrape(ctx, item.URL)
	imageURL := o.verifiedImage(ctx, page.OGImage)

	return o.recipes.Create(ctx, buildRecipe(item, detail, page, imageURL))
}

// verifiedImage 啟用檢查時，無法解碼的預覽圖視為不存在
func (o *Orchestrator) verifiedImage(ctx context.Context, imageURL string) string {
	if imageURL == "" || o.probe == nil {
		return imageURL
	}
	if _, err := o.probe.Verify(ctx, imageURL); err != nil {
		common.LogWarn("預覽圖無法使用", zap.String("url", imageURL), zap.Error(err))
		return ""
	}
	return imageURL
}

// IngestPage 匯入一頁目錄列表
func (o *Orchestrator) IngestPage(ctx context.Context, opts catalog.ListOptions) (*PageReport, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PerPage <= 0 {
		opts.PerPage = defaultPerPage
	}
	opts.PerPage = min(opts.PerPage, o.maxPerPage)

	listing, err := o.catalog.ListRecipes(ctx, opts)
	if err != nil {
		return nil, err
	}

	report, err := o.IngestBatch(ctx, listing.Data)
	if err != nil {
		return nil, err
	}
	return &PageReport{
		Page:         listing.Meta.CurrentPage,
		TotalPages:   listing.Meta.LastPage,
		TotalRecipes: listing.Meta.Total,
		Report:       *report,
	}, nil
}

// IngestMenu 匯入某週菜單（yearWeek 格式 YYYYWW）
func (o *Orchestrator) IngestMenu(ctx context.Context, yearWeek string) (*PageReport, error) {
	menu, err := o.catalog.GetMenu(ctx, yearWeek)
	if err != nil {
		return nil, err
	}

	report, err := o.IngestBatch(ctx, menu.Recipes)
	if err != nil {
		return nil, err
	}
	return &PageReport{
		Page:         1,
		TotalPages:   1,
		TotalRecipes: len(menu.Recipes),
		Report:       *report,
	}, nil
}
