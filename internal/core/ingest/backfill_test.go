package ingest

import (
	"context"
	"errors"
	"slices"
	"testing"

	"mise-planner/internal/core/catalog"
	"mise-planner/internal/core/ingredient"
	"mise-planner/internal/core/recipe"
	"mise-planner/internal/core/scraper"

	"gorm.io/datatypes"
)

var recipeFilterAll = recipe.Filter{}

func stored(id, title, source, sourceID string, ings ...recipe.Ingredient) *recipe.Recipe {
	return &recipe.Recipe{
		ID:          id,
		Title:       datatypes.NewJSONType(recipe.Both(title)),
		Description: datatypes.NewJSONType(recipe.Both("")),
		MealType:    "main",
		TimeMin:     20,
		CostTier:    2,
		Difficulty:  "easy",
		Tags:        datatypes.NewJSONSlice([]string{}),
		Ingredients: datatypes.NewJSONSlice(ings),
		Steps:       datatypes.NewJSONType(map[string][]string{"es": {}}),
		Source:      source,
		SourceID:    sourceID,
		Active:      true,
	}
}

func collectProgress(records *[]Progress) EmitFunc {
	return func(p Progress) error {
		*records = append(*records, p)
		return nil
	}
}

func TestClassify(t *testing.T) {
	o, repo, _ := newTestOrchestrator(t, &fakeCatalog{}, &fakeScraper{})
	ctx := context.Background()

	if err := repo.Create(ctx, stored("r1", "Pollo teriyaki", "manual", "", recipe.Ingredient{Name: recipe.Both("Muslos de pollo")})); err != nil {
		t.Fatal(err)
	}
	r2 := stored("r2", "Tostadas", "manual", "")
	r2.Tags = datatypes.NewJSONSlice([]string{"vegan"})
	if err := repo.Create(ctx, r2); err != nil {
		t.Fatal(err)
	}

	dry, err := o.Classify(ctx, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if dry.Total != 2 || dry.Classified != 1 || !dry.DryRun {
		t.Fatalf("dry run report = %+v", dry)
	}
	want := []string{"high-protein", "japanese"}
	if !slices.Equal(dry.Changes[0].NewTags, want) {
		t.Errorf("new tags = %v, want %v", dry.Changes[0].NewTags, want)
	}
	unchanged, _ := repo.Get(ctx, "r1")
	if len(unchanged.Tags) != 0 {
		t.Errorf("dry run wrote tags %v", unchanged.Tags)
	}

	if _, err := o.Classify(ctx, []string{"r1"}, false); err != nil {
		t.Fatal(err)
	}
	updated, _ := repo.Get(ctx, "r1")
	if !slices.Equal([]string(updated.Tags), want) {
		t.Errorf("tags = %v", updated.Tags)
	}

	again, err := o.Classify(ctx, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if again.Classified != 0 || len(again.Changes) != 0 {
		t.Errorf("second run should be a no-op: %+v", again)
	}
}

func TestBackfillImages(t *testing.T) {
	c := &fakeCatalog{
		details: map[int]*catalog.RecipeDetail{
			101: {RecipeListItem: catalog.RecipeListItem{ID: 101, Name: "Pollo al curry", URL: "https://hfresh.info/r/101"}},
		},
		search: []catalog.RecipeListItem{{ID: 5, Name: "Lasaña de verduras al horno", URL: "https://hfresh.info/r/5"}},
	}
	s := &fakeScraper{pages: map[string]scraper.Page{
		"https://hfresh.info/r/101": {OGImage: "https://img.example/101.jpg", StepImages: []string{"https://img.example/s1.jpg"}},
		"https://hfresh.info/r/5":   {},
	}}
	o, repo, sleeps := newTestOrchestrator(t, c, s)
	ctx := context.Background()

	for _, r := range []*recipe.Recipe{
		stored("hf-101", "Pollo al curry", recipe.SourceHfresh, "101"),
		stored("manual-1", "Lasaña de verduras", "manual", ""),
		stored("manual-2", "Zzz", "manual", ""),
	} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	var records []Progress
	sum, err := o.BackfillImages(ctx, 0, collectProgress(&records))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 3 || sum.Updated != 1 || sum.Failed != 2 {
		t.Errorf("summary = %+v", sum)
	}

	statuses := []string{}
	for _, p := range records {
		if p.Event == EventItem {
			statuses = append(statuses, p.Status)
		}
	}
	wantStatuses := []string{StatusOK, StatusNoOGImage, StatusNoMatch}
	if !slices.Equal(statuses, wantStatuses) {
		t.Errorf("statuses = %v, want %v", statuses, wantStatuses)
	}
	if records[0].Event != EventStart || records[len(records)-1].Event != EventDone {
		t.Errorf("stream must start with start and end with done: %+v", records)
	}
	if records[len(records)-1].Updated != 1 {
		t.Errorf("done record = %+v", records[len(records)-1])
	}
	if len(sleeps.waits) != 3 {
		t.Errorf("sleeps = %v", sleeps.waits)
	}

	r, _ := repo.Get(ctx, "hf-101")
	if r.ImageURL == nil || *r.ImageURL != "https://img.example/101.jpg" || len(r.StepImages) != 1 {
		t.Errorf("hf-101 images = %v %v", r.ImageURL, r.StepImages)
	}
}

func TestBackfillImagesFallsBackToSearch(t *testing.T) {
	c := &fakeCatalog{
		details: map[int]*catalog.RecipeDetail{},
		search:  []catalog.RecipeListItem{{ID: 5, Name: "Pollo al curry rojo", URL: "https://hfresh.info/r/5"}},
	}
	s := &fakeScraper{pages: map[string]scraper.Page{
		"https://hfresh.info/r/5": {OGImage: "https://img.example/5.jpg"},
	}}
	o, repo, _ := newTestOrchestrator(t, c, s)
	ctx := context.Background()
	if err := repo.Create(ctx, stored("hf-404", "Pollo al curry", recipe.SourceHfresh, "404")); err != nil {
		t.Fatal(err)
	}

	var records []Progress
	if _, err := o.BackfillImages(ctx, 0, collectProgress(&records)); err != nil {
		t.Fatal(err)
	}
	if records[1].Status != StatusDetailFetchFailed || records[2].Status != StatusOK {
		t.Errorf("records = %+v", records)
	}
}

func TestBackfillStopsWhenEmitFails(t *testing.T) {
	o, repo, _ := newTestOrchestrator(t, &fakeCatalog{}, &fakeScraper{})
	ctx := context.Background()
	if err := repo.Create(ctx, stored("manual-1", "Zzz", "manual", "")); err != nil {
		t.Fatal(err)
	}
	gone := errors.New("client gone")
	_, err := o.BackfillImages(ctx, 0, func(Progress) error { return gone })
	if !errors.Is(err, gone) {
		t.Errorf("err = %v, want %v", err, gone)
	}
}

func TestBackfillQuantities(t *testing.T) {
	c := &fakeCatalog{details: map[int]*catalog.RecipeDetail{
		101: {RecipeListItem: catalog.RecipeListItem{ID: 101, Name: "Pollo al curry", URL: "https://hfresh.info/r/101"}},
		102: {RecipeListItem: catalog.RecipeListItem{ID: 102, Name: "Sin url"}},
	}}
	s := &fakeScraper{pages: map[string]scraper.Page{
		"https://hfresh.info/r/101": {
			BaseServings: 4,
			Ingredients: []ingredient.Parsed{
				ingredient.Parse("500 gramo(s) Muslos de pollo"),
				ingredient.Parse("1 lata(s) Leche de coco"),
			},
		},
	}}
	o, repo, sleeps := newTestOrchestrator(t, c, s)
	ctx := context.Background()

	quantified := stored("hf-103", "Ya tiene", recipe.SourceHfresh, "103",
		recipe.Ingredient{Name: recipe.Both("Arroz"), Qty2Text: "150 g"})
	for _, r := range []*recipe.Recipe{
		stored("hf-101", "Pollo al curry", recipe.SourceHfresh, "101",
			recipe.Ingredient{Name: recipe.Both("Muslos de pollo"), Category: "carne", Pantry: true}),
		stored("hf-102", "Sin url", recipe.SourceHfresh, "102"),
		quantified,
		stored("hf-104", "Sin id", recipe.SourceHfresh, ""),
	} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	var records []Progress
	sum, err := o.BackfillQuantities(ctx, 0, collectProgress(&records))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 4 || sum.NeedsUpdate != 3 || sum.Updated != 1 || sum.Failed != 2 {
		t.Errorf("summary = %+v", sum)
	}
	want := map[string]string{"hf-101": StatusOK, "hf-102": StatusNoURLInDetail, "hf-104": StatusNoSourceID}
	for _, p := range records {
		if p.Event != EventItem {
			continue
		}
		if want[p.ID] != p.Status {
			t.Errorf("%s status = %s, want %s", p.ID, p.Status, want[p.ID])
		}
	}
	if len(sleeps.waits) != 2 {
		t.Errorf("sleeps = %v, want none after NO_SOURCE_ID", sleeps.waits)
	}

	r, _ := repo.Get(ctx, "hf-101")
	if len(r.Ingredients) != 2 {
		t.Fatalf("ingredients = %+v", r.Ingredients)
	}
	chicken := r.Ingredients[0]
	if chicken.Category != "carne" || !chicken.Pantry {
		t.Errorf("existing category/pantry not preserved: %+v", chicken)
	}
	if *chicken.Qty2 != 250 || *chicken.Qty4 != 500 || chicken.Qty2Text != "250 g" {
		t.Errorf("scaled from 4 servings = %+v", chicken)
	}
	if r.Ingredients[1].Category != "unknown" || r.Ingredients[1].Qty2Text != "0.5 lata" {
		t.Errorf("new ingredient = %+v", r.Ingredients[1])
	}
}

func TestBackfillQuantitiesLimit(t *testing.T) {
	o, repo, _ := newTestOrchestrator(t, &fakeCatalog{}, &fakeScraper{})
	ctx := context.Background()
	for _, id := range []string{"hf-1", "hf-2", "hf-3"} {
		if err := repo.Create(ctx, stored(id, id, recipe.SourceHfresh, "")); err != nil {
			t.Fatal(err)
		}
	}
	var records []Progress
	sum, err := o.BackfillQuantities(ctx, 2, collectProgress(&records))
	if err != nil {
		t.Fatal(err)
	}
	if sum.NeedsUpdate != 2 || len(records) != 4 {
		t.Errorf("summary = %+v, records = %d", sum, len(records))
	}
}
