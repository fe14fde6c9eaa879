package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"mise-planner/internal/app"
	"mise-planner/internal/core/planner"
	"mise-planner/internal/core/recipe"
	"mise-planner/internal/core/shopping"
	"mise-planner/internal/infrastructure/config"
	"mise-planner/internal/pkg/common"

	"github.com/spf13/cobra"
	"gorm.io/datatypes"
)

func TestMain(m *testing.M) {
	common.InitNopLogger()
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Version: "test"},
		Catalog:  config.CatalogConfig{BaseURL: "http://127.0.0.1:0", Locale: "es-ES"},
		Ingest:   config.IngestConfig{MaxPerPage: 200},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
	}
}

func newTestContext(t *testing.T) (*commandContext, *app.Services) {
	t.Helper()
	ctx := newCommandContext(func() (*config.Config, error) { return testConfig(), nil })
	t.Cleanup(ctx.close)

	svc, err := ctx.ensureServices()
	if err != nil {
		t.Fatalf("ensureServices: %v", err)
	}
	return ctx, svc
}

func execute(ctx *commandContext, args ...string) (string, error) {
	var buf bytes.Buffer
	root := newRootCommand(ctx)
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func qty(f float64) *float64 { return &f }

func seed(t *testing.T, svc *app.Services, id string, timeMin int, ings ...recipe.Ingredient) {
	t.Helper()
	r := &recipe.Recipe{
		ID:          id,
		Title:       datatypes.NewJSONType(recipe.Both(id)),
		MealType:    "main",
		TimeMin:     timeMin,
		CostTier:    1,
		Tags:        datatypes.NewJSONSlice([]string{}),
		Ingredients: datatypes.NewJSONSlice(ings),
		Source:      "manual",
		Active:      true,
	}
	if err := svc.Recipes.Create(context.Background(), r); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestSettingsFlagsResolve(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(planner.Settings) bool
		wantErr bool
	}{
		{"defaults", nil, func(s planner.Settings) bool {
			return s.DoublePortions && s.Mode == planner.ModeLazy && s.MaxTimeMin == 25
		}, false},
		{"single turns off doubling", []string{"--single"}, func(s planner.Settings) bool {
			return !s.DoublePortions
		}, false},
		{"mode is case-insensitive", []string{"--mode", "CHEF", "--max-time", "60"}, func(s planner.Settings) bool {
			return s.Mode == planner.ModeChef && s.MaxTimeMin == 60
		}, false},
		{"cost out of range", []string{"--max-cost", "4"}, nil, true},
		{"unknown mode", []string{"--mode", "gourmet"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "x"}
			sf := bindSettingsFlags(cmd)
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}
			s, err := sf.resolve()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if !tt.check(s) {
				t.Errorf("settings = %+v", s)
			}
		})
	}
}

func decodeItems(t *testing.T, out string) []shopping.Item {
	t.Helper()
	var items []shopping.Item
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return items
}

func TestShopCommandOneAndManyRecipes(t *testing.T) {
	ctx, svc := newTestContext(t)
	seed(t, svc, "a", 15, recipe.Ingredient{Name: recipe.Both("Arroz"), Qty: qty(200), Unit: "g", Category: "despensa"})
	seed(t, svc, "b", 15, recipe.Ingredient{Name: recipe.Both("arroz"), Qty: qty(100), Unit: "g", Category: "despensa"})

	out, err := execute(ctx, "--json", "shop", "a")
	if err != nil {
		t.Fatalf("shop a: %v", err)
	}
	if items := decodeItems(t, out); len(items) != 1 || items[0].Qty == nil || *items[0].Qty != 400 {
		t.Errorf("doubled single recipe = %+v", items)
	}

	out, err = execute(ctx, "--json", "shop", "a", "b", "--single")
	if err != nil {
		t.Fatalf("shop a b: %v", err)
	}
	if items := decodeItems(t, out); len(items) != 1 || items[0].Qty == nil || *items[0].Qty != 300 {
		t.Errorf("merged recipes = %+v", items)
	}

	out, err = execute(ctx, "shop", "a", "--single")
	if err != nil {
		t.Fatalf("shop table: %v", err)
	}
	if !strings.Contains(out, "Arroz") || !strings.Contains(out, "200 g") {
		t.Errorf("table output:\n%s", out)
	}
}

func TestShopCommandUnknownRecipe(t *testing.T) {
	ctx, _ := newTestContext(t)

	if _, err := execute(ctx, "shop", "missing"); !errors.Is(err, recipe.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := execute(ctx, "shop"); err == nil {
		t.Error("shop without ids should fail")
	}
}

func TestPickCommand(t *testing.T) {
	ctx, svc := newTestContext(t)

	if _, err := execute(ctx, "pick"); !errors.Is(err, planner.ErrNoEligibleRecipe) {
		t.Fatalf("empty catalogue: err = %v", err)
	}

	seed(t, svc, "quick", 15)
	seed(t, svc, "slow", 90)

	out, err := execute(ctx, "--json", "pick")
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	var picked recipe.Recipe
	if err := json.Unmarshal([]byte(out), &picked); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if picked.ID != "quick" {
		t.Errorf("picked %q, want quick", picked.ID)
	}

	if _, err := execute(ctx, "pick", "--mode", "CHEF", "--max-time", "120"); err != nil {
		t.Errorf("uppercase mode: %v", err)
	}
}

func TestRunClosesDatabaseWhenCommandFails(t *testing.T) {
	ctx, _ := newTestContext(t)
	sqlDB, err := ctx.db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	if err := run(context.Background(), ctx, []string{"shop", "missing"}); err == nil {
		t.Fatal("expected command error")
	}
	if err := sqlDB.Ping(); err == nil {
		t.Error("database still open after failed command")
	}
	if ctx.db != nil {
		t.Error("context still holds the database handle")
	}
}

func TestFormatQty(t *testing.T) {
	tests := []struct {
		qty  *float64
		text string
		unit string
		want string
	}{
		{qty(200), "", "g", "200 g"},
		{qty(1.5), "", "", "1.5"},
		{qty(2), "1 bolsa", "ud", "2 ud"},
		{nil, "al gusto", "", "al gusto"},
		{nil, "", "g", "-"},
	}
	for _, tt := range tests {
		if got := formatQty(tt.qty, tt.text, tt.unit); got != tt.want {
			t.Errorf("formatQty(%v, %q, %q) = %q, want %q", tt.qty, tt.text, tt.unit, got, tt.want)
		}
	}
}
