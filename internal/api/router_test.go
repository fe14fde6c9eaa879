package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"mise-planner/internal/app"
	"mise-planner/internal/core/recipe"
	"mise-planner/internal/infrastructure/config"
	"mise-planner/internal/infrastructure/database"
	"mise-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

func TestMain(m *testing.M) {
	common.InitNopLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Version: "test"},
		Catalog: config.CatalogConfig{BaseURL: "http://127.0.0.1:0", Locale: "es-ES"},
		Ingest:  config.IngestConfig{MaxPerPage: 200},
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *app.Services) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	svc, err := app.NewServices(testConfig(), db, nil)
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	return SetupRouter(testConfig(), svc, sqlDB), svc
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

func do(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthRoutes(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, path := range []string{"/health", "/ready", "/live"} {
		if w := do(router, http.MethodGet, path, nil); w.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, w.Code)
		}
	}
}

func TestCatalogRoutesWithoutToken(t *testing.T) {
	router, _ := newTestRouter(t)
	cases := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/recipes/hfresh-import"},
		{http.MethodPost, "/api/v1/recipes/populate-images"},
		{http.MethodGet, "/api/v1/catalog/tags"},
	}
	for _, tc := range cases {
		w := do(router, tc.method, tc.path, nil)
		var resp common.ErrorResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if w.Code != http.StatusInternalServerError || resp.Code != common.ErrCodeMissingToken {
			t.Errorf("%s: status %d code %q", tc.path, w.Code, resp.Code)
		}
	}
}

func TestAutoClassifyWorksWithoutToken(t *testing.T) {
	router, svc := newTestRouter(t)
	seed(t, svc, "r1", 15, recipe.Ingredient{Name: recipe.Both("pollo"), Qty: qty(200), Unit: "g"})

	w := do(router, http.MethodPost, "/api/v1/recipes/auto-classify?dryRun=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestShopGenerate(t *testing.T) {
	router, svc := newTestRouter(t)
	seed(t, svc, "a", 15, recipe.Ingredient{Name: recipe.Both("Arroz"), Qty: qty(200), Unit: "g", Category: "despensa"})
	seed(t, svc, "b", 15, recipe.Ingredient{Name: recipe.Both("arroz"), Qty: qty(100), Unit: "g", Category: "despensa"})

	w := do(router, http.MethodPost, "/api/v1/shop/generate", map[string]any{
		"recipe_ids": []string{"a", "b"},
		"settings":   map[string]any{"doublePortions": false},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Items []struct {
			Key string   `json:"key"`
			Qty *float64 `json:"qty"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Qty == nil || *resp.Items[0].Qty != 300 {
		t.Errorf("items = %+v", resp.Items)
	}
}

func TestShopGenerateValidation(t *testing.T) {
	router, svc := newTestRouter(t)
	seed(t, svc, "a", 15)

	if w := do(router, http.MethodPost, "/api/v1/shop/generate", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing ids: status %d", w.Code)
	}
	w := do(router, http.MethodPost, "/api/v1/shop/generate", map[string]any{
		"recipe_ids": []string{"a"},
		"settings":   map[string]any{"maxCostTier": 0},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad settings: status %d", w.Code)
	}
	if w := do(router, http.MethodPost, "/api/v1/shop/generate", map[string]any{"recipe_ids": []string{"missing"}}); w.Code != http.StatusNotFound {
		t.Errorf("unknown recipe: status %d", w.Code)
	}
}

func TestPickAndHistory(t *testing.T) {
	router, svc := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/today/pick", nil)
	var empty common.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &empty)
	if w.Code != http.StatusNotFound || empty.Code != common.ErrCodeNoEligibleRecipe {
		t.Fatalf("empty catalogue: status %d code %q", w.Code, empty.Code)
	}

	seed(t, svc, "quick", 15)
	seed(t, svc, "slow", 90)

	w = do(router, http.MethodPost, "/api/v1/today/pick", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pick: status %d: %s", w.Code, w.Body.String())
	}
	var picked recipe.Recipe
	if err := json.Unmarshal(w.Body.Bytes(), &picked); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if picked.ID != "quick" {
		t.Errorf("picked %q, want quick", picked.ID)
	}

	w = do(router, http.MethodPost, "/api/v1/history", map[string]any{"recipe_id": "quick"})
	if w.Code != http.StatusCreated {
		t.Fatalf("history: status %d: %s", w.Code, w.Body.String())
	}
	since, err := svc.History.Since(context.Background(), time.Now().Add(-time.Hour))
	if err != nil || len(since) != 1 {
		t.Fatalf("history since = %v, %v", since, err)
	}

	if w := do(router, http.MethodPost, "/api/v1/history", map[string]any{"recipe_id": "nope"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown recipe: status %d", w.Code)
	}
}
