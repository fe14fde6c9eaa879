// Package scraper 抓取食譜公開頁面並取出預覽圖、份量、食材與步驟
package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"mise-planner/internal/core/httpclient"
	"mise-planner/internal/core/ingredient"
	"mise-planner/internal/infrastructure/config"
	"mise-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Page 抓取結果；抓取失敗時仍填入預設值
type Page struct {
	URL          string              `json:"url"`
	OGImage      string              `json:"ogImage,omitempty"`
	StepImages   []string            `json:"stepImages"`
	Steps        []string            `json:"steps"`
	Ingredients  []ingredient.Parsed `json:"ingredients"`
	BaseServings int                 `json:"baseServings"`
	HTTPStatus   int                 `json:"httpStatus"`
}

func emptyPage(pageURL string, status int) Page {
	return Page{
		URL:          pageURL,
		StepImages:   []string{},
		Steps:        []string{},
		Ingredients:  []ingredient.Parsed{},
		BaseServings: ingredient.DefaultServings,
		HTTPStatus:   status,
	}
}

// Fetcher 發送 GET 請求
type Fetcher interface {
	Get(ctx context.Context, rawURL string, req httpclient.Request) (*httpclient.Response, error)
}

// Scraper 頁面抓取器
type Scraper struct {
	fetcher         Fetcher
	userAgent       string
	aggregatorHosts []string
	publisherLink   *regexp.Regexp
}

// New 創建抓取器；發布者連結樣式無效時停用聚合站轉跳
func New(f Fetcher, cfg config.ScraperConfig) *Scraper {
	s := &Scraper{
		fetcher:         f,
		userAgent:       cfg.UserAgent,
		aggregatorHosts: cfg.AggregatorHosts,
	}
	if s.userAgent == "" {
		s.userAgent = "Mozilla/5.0"
	}
	if cfg.PublisherHostPattern != "" {
		re, err := regexp.Compile(cfg.PublisherHostPattern)
		if err != nil {
			common.LogWarn("發布者連結樣式無效", zap.String("pattern", cfg.PublisherHostPattern), zap.Error(err))
		} else {
			s.publisherLink = re
		}
	}
	return s
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*httpclient.Response, error) {
	return s.fetcher.Get(ctx, pageURL, httpclient.Request{
		Headers: map[string]string{
			"User-Agent": s.userAgent,
			"Accept":     "text/html",
		},
	})
}

func (s *Scraper) isAggregator(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range s.aggregatorHosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (s *Scraper) publisherURL(doc document) string {
	if s.publisherLink == nil {
		return ""
	}
	for _, href := range doc.hrefs {
		if m := s.publisherLink.FindString(href); m != "" {
			return m
		}
	}
	return ""
}

// Scrape 抓取並解析頁面，永不返回錯誤；非 2xx 時只填入狀態碼
func (s *Scraper) Scrape(ctx context.Context, pageURL string) Page {
	resp, err := s.fetch(ctx, pageURL)
	if err != nil {
		common.LogWarn("抓取頁面失敗", zap.String("url", pageURL), zap.Error(err))
		return emptyPage(pageURL, 0)
	}
	if !resp.OK() {
		common.LogWarn("頁面返回非成功狀態", zap.String("url", pageURL), zap.Int("status", resp.StatusCode))
		return emptyPage(pageURL, resp.StatusCode)
	}

	status := resp.StatusCode
	doc := parseDocument(resp.Body)

	// 聚合站沒有結構化資料時改抓發布者頁面，只嘗試一次
	if len(doc.jsonLD) == 0 && s.isAggregator(pageURL) {
		if link := s.publisherURL(doc); link != "" {
			common.LogDebug("改抓發布者頁面", zap.String("from", pageURL), zap.String("to", link))
			if pub, err := s.fetch(ctx, link); err == nil && pub.OK() {
				doc = parseDocument(pub.Body)
				pageURL = link
				status = pub.StatusCode
			}
		}
	}

	page := emptyPage(pageURL, status)
	if doc.ogImage != "" {
		page.OGImage = absolutize(doc.ogImage, pageURL)
	}

	rec := findRecipe(decodeBlocks(doc.jsonLD))
	if rec == nil {
		common.LogDebug("頁面沒有食譜結構化資料", zap.String("url", pageURL))
		return page
	}

	page.BaseServings = servings(rec["recipeYield"])
	if ings := ingredientLines(rec["recipeIngredient"]); len(ings) > 0 {
		page.Ingredients = ings
	}
	texts, images := steps(rec["recipeInstructions"], pageURL)
	page.Steps = texts
	page.StepImages = images

	common.LogDebug("頁面解析完成",
		zap.String("url", pageURL),
		zap.Int("ingredients", len(page.Ingredients)),
		zap.Int("steps", len(page.Steps)),
		zap.Int("servings", page.BaseServings),
	)
	return page
}
