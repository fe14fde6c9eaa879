package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"mise-planner/internal/core/cache"
	"mise-planner/internal/core/httpclient"
	"mise-planner/internal/infrastructure/config"
	"mise-planner/internal/pkg/common"
)

func TestMain(m *testing.M) {
	common.InitNopLogger()
	m.Run()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	hc := httpclient.New(httpclient.Options{
		MaxRetries: 3,
		Backoff:    time.Millisecond,
		Sleep:      func(context.Context, time.Duration) error { return nil },
	})
	c, err := New(config.CatalogConfig{APIToken: "secret", BaseURL: srv.URL, Locale: "es-ES"}, hc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(config.CatalogConfig{APIToken: "  ", BaseURL: "http://unused"}, httpclient.New(httpclient.DefaultOptions()))
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}
}

func TestListRecipes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/es-ES/recipes" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" || r.Header.Get("Accept") != "application/json" {
			t.Errorf("headers = %v", r.Header)
		}
		q := r.URL.Query()
		if q.Get("per_page") != "50" || q.Get("page") != "3" || q.Get("tag") != "7" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"data":[{"id":11,"canonical_id":9,"name":"Pollo al curry","tags":[{"id":1,"name":"Exprés"}],"label":{"id":2,"name":"Premium"}}],
			"meta":{"current_page":3,"last_page":8,"per_page":50,"total":400}}`))
	})

	page, err := c.ListRecipes(context.Background(), ListOptions{Page: 3, Tag: 7})
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	if len(page.Data) != 1 || page.Meta.LastPage != 8 {
		t.Fatalf("page = %+v", page)
	}
	item := page.Data[0]
	if item.SourceID() != 9 {
		t.Errorf("SourceID = %d, want canonical id 9", item.SourceID())
	}
	if got := item.TagNames(); len(got) != 1 || got[0] != "Exprés" {
		t.Errorf("TagNames = %v", got)
	}
}

func TestSearchRecipesSetsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") != "pollo curry" || r.URL.Query().Get("per_page") != "30" {
			t.Errorf("query = %v", r.URL.Query())
		}
		w.Write([]byte(`{"data":[],"meta":{}}`))
	})
	if _, err := c.SearchRecipes(context.Background(), "pollo curry", ListOptions{PerPage: 30}); err != nil {
		t.Fatal(err)
	}
}

func TestGetRecipeDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/es-ES/recipes/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"id":42,"name":"Tacos","url":"https://hfresh.info/es-ES/recipes/42",
			"nutrition":[{"name":"Energía (kcal)","type":"kcal","unit":"kcal","amount":640}],
			"allergens":[{"id":1,"name":"Gluten"}],"ingredients":[{"id":5,"name":"Tortilla"}]}}`))
	})

	d, err := c.GetRecipeDetail(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetRecipeDetail: %v", err)
	}
	if d.Name != "Tacos" || d.URL == "" || len(d.Nutrition) != 1 || d.Nutrition[0].Amount != 640 {
		t.Fatalf("detail = %+v", d)
	}
}

func TestNon2xxReturnsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such recipe"))
	})

	_, err := c.GetRecipeDetail(context.Background(), 1)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.StatusCode != 404 || se.Body != "no such recipe" {
		t.Fatalf("StatusError = %+v", se)
	}
}

func TestStatusErrorTruncatesOnRuneBoundary(t *testing.T) {
	// 199 個 ASCII 後接 "ñ"，截斷點落在兩位元組字元中間
	body := strings.Repeat("a", 199) + strings.Repeat("ñ", 10)
	msg := (&StatusError{StatusCode: 502, Body: body}).Error()

	if !utf8.ValidString(msg) {
		t.Fatalf("message is not valid UTF-8: %q", msg)
	}
	if want := "catalog 502: " + strings.Repeat("a", 199) + "..."; msg != want {
		t.Errorf("message = %q, want %q", msg, want)
	}

	short := (&StatusError{StatusCode: 404, Body: "receta no encontrada"}).Error()
	if short != "catalog 404: receta no encontrada" {
		t.Errorf("short message = %q", short)
	}
}

func TestRateLimitSurvivingRetriesIsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetTags(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want 429 StatusError", err)
	}
}

func TestMalformedDetailIsShapeError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"missing data", `{"id":1}`},
		{"zero id", `{"data":{"id":0,"name":"x"}}`},
		{"missing name", `{"data":{"id":3}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := c.GetRecipeDetail(context.Background(), 1)
			var se *ShapeError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want ShapeError", err)
			}
		})
	}
}

func TestGetMenu(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/es-ES/menus/202611" || r.URL.Query().Get("include_recipes") != "true" {
			t.Errorf("request = %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		w.Write([]byte(`{"id":5,"year_week":202611,"recipes":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`))
	})

	menu, err := c.GetMenu(context.Background(), "202611")
	if err != nil {
		t.Fatalf("GetMenu: %v", err)
	}
	if menu.YearWeek != 202611 || len(menu.Recipes) != 2 {
		t.Fatalf("menu = %+v", menu)
	}
}

func TestGetMenuWrappedInData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":5,"year_week":202612,"recipes":[{"id":1,"name":"A"}]}}`))
	})

	menu, err := c.GetMenu(context.Background(), "202612")
	if err != nil {
		t.Fatalf("GetMenu: %v", err)
	}
	if menu.YearWeek != 202612 || len(menu.Recipes) != 1 {
		t.Fatalf("menu = %+v", menu)
	}
}

type countingSource struct {
	tags int
}

func (s *countingSource) GetTags(context.Context) ([]Tag, error) {
	s.tags++
	return []Tag{{ID: 1, Name: "Vegano"}}, nil
}

func (s *countingSource) GetAllergens(context.Context) ([]Allergen, error) {
	return []Allergen{{ID: 2, Name: "Gluten"}}, nil
}

func TestVocabularyUsesCache(t *testing.T) {
	store := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Hour})
	defer store.Close()

	src := &countingSource{}
	v := NewVocabulary(src, store, "es-ES")
	for i := 0; i < 3; i++ {
		tags, err := v.Tags(context.Background())
		if err != nil || len(tags) != 1 || tags[0].Name != "Vegano" {
			t.Fatalf("Tags = %v, %v", tags, err)
		}
	}
	if src.tags != 1 {
		t.Fatalf("source called %d times, want 1", src.tags)
	}
}

func TestVocabularyWithoutCache(t *testing.T) {
	src := &countingSource{}
	v := NewVocabulary(src, nil, "es-ES")
	v.Tags(context.Background())
	v.Tags(context.Background())
	if src.tags != 2 {
		t.Fatalf("source called %d times, want 2", src.tags)
	}
}
