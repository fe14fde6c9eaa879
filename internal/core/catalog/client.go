package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"mise-planner/internal/core/httpclient"
	"mise-planner/internal/infrastructure/config"
)

const defaultPerPage = 50

// ErrMissingToken 未設定目錄 API token
var ErrMissingToken = errors.New("catalog api token is not configured (set HFRESH_API_TOKEN)")

// StatusError 上游返回非 2xx
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		cut := 200
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	return fmt.Sprintf("catalog %d: %s", e.StatusCode, body)
}

// Client 食譜目錄 API 客戶端
type Client struct {
	http    *httpclient.Client
	baseURL string
	locale  string
	token   string
}

// New 創建目錄客戶端；token 為空時立即失敗，不發出任何請求
func New(cfg config.CatalogConfig, hc *httpclient.Client) (*Client, error) {
	token := strings.TrimSpace(cfg.APIToken)
	if token == "" {
		return nil, ErrMissingToken
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		locale:  cfg.Locale,
		token:   token,
	}, nil
}

// Locale 當前地區
func (c *Client) Locale() string {
	return c.locale
}

func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.http.Get(ctx, c.baseURL+"/"+c.locale+path, httpclient.Request{
		Headers: map[string]string{
			"Authorization": "Bearer " + c.token,
			"Accept":        "application/json",
		},
		Query: query,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	if !resp.OK() {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return resp.Body, nil
}

// ListRecipes 分頁列出食譜
func (c *Client) ListRecipes(ctx context.Context, opts ListOptions) (*RecipePage, error) {
	q := url.Values{}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	q.Set("per_page", strconv.Itoa(perPage))
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Tag > 0 {
		q.Set("tag", strconv.Itoa(opts.Tag))
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}

	body, err := c.fetch(ctx, "/recipes", q)
	if err != nil {
		return nil, err
	}
	return parseRecipePage(body)
}

// SearchRecipes 以關鍵字搜尋食譜
func (c *Client) SearchRecipes(ctx context.Context, query string, opts ListOptions) (*RecipePage, error) {
	opts.Search = query
	return c.ListRecipes(ctx, opts)
}

// GetRecipeDetail 獲取食譜詳情
func (c *Client) GetRecipeDetail(ctx context.Context, id int) (*RecipeDetail, error) {
	body, err := c.fetch(ctx, fmt.Sprintf("/recipes/%d", id), nil)
	if err != nil {
		return nil, err
	}
	return parseRecipeDetail(body)
}

// GetTags 獲取標籤詞彙
func (c *Client) GetTags(ctx context.Context) ([]Tag, error) {
	body, err := c.fetch(ctx, "/tags", url.Values{"per_page": {"200"}})
	if err != nil {
		return nil, err
	}
	return parseTags(body)
}

// GetAllergens 獲取過敏原詞彙
func (c *Client) GetAllergens(ctx context.Context) ([]Allergen, error) {
	body, err := c.fetch(ctx, "/allergens", url.Values{"per_page": {"200"}})
	if err != nil {
		return nil, err
	}
	return parseAllergens(body)
}

// GetMenu 獲取指定週（如 202611）的菜單與其食譜
func (c *Client) GetMenu(ctx context.Context, yearWeek string) (*Menu, error) {
	body, err := c.fetch(ctx, "/menus/"+url.PathEscape(yearWeek), url.Values{"include_recipes": {"true"}})
	if err != nil {
		return nil, err
	}
	return parseMenu(body)
}
