package ingest

import (
	"context"
	"strconv"

	"mise-planner/internal/core/catalog"
	"mise-planner/internal/core/recipe"
	"mise-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// 進度事件
const (
	EventStart = "start"
	EventItem  = "item"
	EventDone  = "done"
)

// 單一項目狀態
const (
	StatusOK                   = "OK"
	StatusDetailFetchFailed    = "DETAIL_FETCH_FAILED"
	StatusNoMatch              = "NO_HF_MATCH"
	StatusNoOGImage            = "NO_OG_IMAGE"
	StatusImageUnreadable      = "IMAGE_UNREADABLE"
	StatusNoSourceID           = "NO_SOURCE_ID"
	StatusNoURLInDetail        = "NO_URL_IN_DETAIL"
	StatusNoIngredientsScraped = "NO_INGREDIENTS_SCRAPED"
	StatusError                = "ERROR"
)

const (
	searchPerPage = 30
	minMatchScore = 0.45
)

// Progress 回填進度記錄；start 與 done 事件帶統計欄位
type Progress struct {
	Event       string `json:"event"`
	Index       int    `json:"i,omitempty"`
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Status      string `json:"status,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Total       int    `json:"total,omitempty"`
	NeedsUpdate int    `json:"needsUpdate,omitempty"`
	Updated     int    `json:"updated,omitempty"`
	Failed      int    `json:"failed,omitempty"`
}

// EmitFunc 接收進度記錄；返回錯誤時中止回填（例如客戶端斷線）
type EmitFunc func(Progress) error

// Summary 回填統計
type Summary struct {
	Total       int `json:"total"`
	NeedsUpdate int `json:"needsUpdate"`
	Updated     int `json:"updated"`
	Failed      int `json:"failed"`
}

func (s Summary) done() Progress {
	return Progress{Event: EventDone, Total: s.Total, NeedsUpdate: s.NeedsUpdate, Updated: s.Updated, Failed: s.Failed}
}

// findCatalogURL 以標題的多個候選查詢模糊搜尋目錄，返回最佳且分數足夠的連結
func (o *Orchestrator) findCatalogURL(ctx context.Context, title string) (string, string) {
	queries := catalog.BuildCandidateQueries(title)
	for _, q := range queries {
		res, err := o.catalog.SearchRecipes(ctx, q, catalog.ListOptions{PerPage: searchPerPage})
		if err != nil {
			common.LogDebug("模糊搜尋失敗", zap.String("query", q), zap.Error(err))
			continue
		}
		if len(res.Data) == 0 {
			continue
		}

		best := res.Data[0]
		bestScore := catalog.ScoreMatch(q, best.Name)
		for _, it := range res.Data[1:] {
			if sc := catalog.ScoreMatch(q, it.Name); sc > bestScore {
				best, bestScore = it, sc
			}
		}
		if bestScore > minMatchScore && best.URL != "" {
			return best.URL, q
		}
	}
	if len(queries) > 0 {
		return "", queries[0]
	}
	return "", ""
}

// BackfillImages 為沒有圖片（或只有佔位圖）的食譜抓取預覽圖與步驟圖。
// 目錄來源的食譜先以詳情取得頁面網址，失敗或非目錄來源時改用標題模糊搜尋。
func (o *Orchestrator) BackfillImages(ctx context.Context, limit int, emit EmitFunc) (*Summary, error) {
	recipes, err := o.recipes.List(ctx, recipe.Filter{MissingImage: true, Limit: limit})
	if err != nil {
		return nil, err
	}

	sum := &Summary{Total: len(recipes), NeedsUpdate: len(recipes)}
	if err := emit(Progress{Event: EventStart, Total: sum.Total, NeedsUpdate: sum.NeedsUpdate}); err != nil {
		return sum, err
	}

	for i := range recipes {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r := &recipes[i]
		base := Progress{Event: EventItem, Index: i + 1, ID: r.ID, Title: r.TitleIn(recipe.DefaultLang)}

		var records []Progress
		perr := safely(func() error {
			records = o.backfillImage(ctx, r, base)
			return nil
		})
		if perr != nil {
			p := base
			p.Status, p.Detail = StatusError, perr.Error()
			records = append(records, p)
		}

		for _, p := range records {
			switch p.Status {
			case StatusOK:
				sum.Updated++
			case StatusDetailFetchFailed:
			default:
				sum.Failed++
			}
			if err := emit(p); err != nil {
				return sum, err
			}
		}

		if err := o.sleep(ctx, o.backfillDelay); err != nil {
			return sum, err
		}
	}

	common.LogInfo("Backfill finished", zap.String("kind", "images"), zap.Int("updated", sum.Updated), zap.Int("failed", sum.Failed))
	return sum, emit(sum.done())
}

func (o *Orchestrator) backfillImage(ctx context.Context, r *recipe.Recipe, base Progress) []Progress {
	var records []Progress
	record := func(status, detail string) []Progress {
		p := base
		p.Status, p.Detail = status, detail
		return append(records, p)
	}

	var pageURL string
	if r.Source == recipe.SourceHfresh && r.SourceID != "" {
		detail, err := o.detailFor(ctx, r.SourceID)
		if err != nil {
			records = record(StatusDetailFetchFailed, err.Error())
		} else {
			pageURL = detail.URL
		}
	}

	if pageURL == "" {
		found, query := o.findCatalogURL(ctx, base.Title)
		if found == "" {
			return record(StatusNoMatch, query)
		}
		pageURL = found
	}

	page := o.scraper.Scrape(ctx, pageURL)
	if page.OGImage == "" {
		return record(StatusNoOGImage, pageURL)
	}
	if o.verifiedImage(ctx, page.OGImage) == "" {
		return record(StatusImageUnreadable, page.OGImage)
	}

	if err := o.recipes.UpdateImages(ctx, r.ID, page.OGImage, page.StepImages); err != nil {
		return record(StatusError, err.Error())
	}
	return record(StatusOK, page.OGImage)
}

func (o *Orchestrator) detailFor(ctx context.Context, sourceID string) (*catalog.RecipeDetail, error) {
	id, err := strconv.Atoi(sourceID)
	if err != nil {
		return nil, common.NewValidationError("invalid source id " + sourceID)
	}
	return o.catalog.GetRecipeDetail(ctx, id)
}

func hasQuantities(ings []recipe.Ingredient) bool {
	for _, ing := range ings {
		if ing.HasQuantity() {
			return true
		}
	}
	return false
}

// BackfillQuantities 為沒有任何數量的目錄食譜重新抓取食材，保留既有食材的分類與常備標記
func (o *Orchestrator) BackfillQuantities(ctx context.Context, limit int, emit EmitFunc) (*Summary, error) {
	all, err := o.recipes.List(ctx, recipe.Filter{Source: recipe.SourceHfresh})
	if err != nil {
		return nil, err
	}

	var needs []recipe.Recipe
	for _, r := range all {
		if !hasQuantities(r.Ingredients) {
			needs = append(needs, r)
		}
	}
	if limit > 0 && len(needs) > limit {
		needs = needs[:limit]
	}

	sum := &Summary{Total: len(all), NeedsUpdate: len(needs)}
	if err := emit(Progress{Event: EventStart, Total: sum.Total, NeedsUpdate: sum.NeedsUpdate}); err != nil {
		return sum, err
	}

	for i := range needs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r := &needs[i]
		p := Progress{Event: EventItem, Index: i + 1, ID: r.ID, Title: r.TitleIn(recipe.DefaultLang)}

		var status, detail string
		if err := safely(func() error {
			status, detail = o.backfillQuantity(ctx, r)
			return nil
		}); err != nil {
			status, detail = StatusError, err.Error()
		}
		p.Status, p.Detail = status, detail

		if status == StatusOK {
			sum.Updated++
		} else {
			sum.Failed++
		}
		if err := emit(p); err != nil {
			return sum, err
		}

		if status == StatusNoSourceID {
			continue
		}
		if err := o.sleep(ctx, o.backfillDelay); err != nil {
			return sum, err
		}
	}

	common.LogInfo("Backfill finished", zap.String("kind", "quantities"), zap.Int("updated", sum.Updated), zap.Int("failed", sum.Failed))
	return sum, emit(sum.done())
}

func (o *Orchestrator) backfillQuantity(ctx context.Context, r *recipe.Recipe) (string, string) {
	if r.SourceID == "" {
		return StatusNoSourceID, ""
	}

	detail, err := o.detailFor(ctx, r.SourceID)
	if err != nil {
		return StatusError, err.Error()
	}
	if detail.URL == "" {
		return StatusNoURLInDetail, ""
	}

	page := o.scraper.Scrape(ctx, detail.URL)
	if len(page.Ingredients) == 0 {
		return StatusNoIngredientsScraped, detail.URL
	}

	ingredients := fromScraped(page.Ingredients, page.BaseServings, r.Ingredients)
	if err := o.recipes.UpdateIngredients(ctx, r.ID, ingredients); err != nil {
		return StatusError, err.Error()
	}
	return StatusOK, strconv.Itoa(len(ingredients))
}
