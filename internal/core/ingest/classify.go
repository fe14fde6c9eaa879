package ingest

import (
	"context"

	"mise-planner/internal/core/recipe"
	"mise-planner/internal/core/tags"
	"mise-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// maxReportedChanges 報告中最多列出的變更數
const maxReportedChanges = 100

// TagChange 一道食譜的標籤變更
type TagChange struct {
	ID      string   `json:"id"`
	OldTags []string `json:"oldTags"`
	NewTags []string `json:"newTags"`
}

// ClassifyReport 重新分類結果
type ClassifyReport struct {
	Total      int         `json:"total"`
	Classified int         `json:"classified"`
	DryRun     bool        `json:"dryRun"`
	Changes    []TagChange `json:"changes"`
}

// Classify 以食材與標題重新推斷標籤並與既有標籤合併；ids 為空時處理全部食譜。
// dryRun 時只回報不寫入。
func (o *Orchestrator) Classify(ctx context.Context, ids []string, dryRun bool) (*ClassifyReport, error) {
	recipes, err := o.recipes.List(ctx, recipe.Filter{IDs: ids})
	if err != nil {
		return nil, err
	}

	report := &ClassifyReport{Total: len(recipes), DryRun: dryRun, Changes: []TagChange{}}
	for i := range recipes {
		r := &recipes[i]
		oldTags := []string(r.Tags)
		if oldTags == nil {
			oldTags = []string{}
		}

		title := r.Title.Data()
		newTags := tags.MergeTags(oldTags,
			tags.ClassifyIngredients(r.IngredientNames()),
			tags.ClassifyTitle(title["es"], title["ca"]),
		)
		if tags.Equal(oldTags, newTags) {
			continue
		}

		report.Classified++
		if len(report.Changes) < maxReportedChanges {
			report.Changes = append(report.Changes, TagChange{ID: r.ID, OldTags: oldTags, NewTags: newTags})
		}
		if dryRun {
			continue
		}
		if err := o.recipes.UpdateTags(ctx, r.ID, newTags); err != nil {
			return report, err
		}
	}

	common.LogInfo("重新分類完成",
		zap.Int("total", report.Total),
		zap.Int("classified", report.Classified),
		zap.Bool("dry_run", dryRun),
	)
	return report, nil
}
