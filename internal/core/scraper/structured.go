package scraper

import (
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"mise-planner/internal/core/ingredient"
	"mise-planner/internal/pkg/common"

	"golang.org/x/net/html"
)

var (
	markup        = regexp.MustCompile(`<[^>]+>`)
	sentenceBreak = regexp.MustCompile(`[.!?]\s+`)
	leadingInt    = regexp.MustCompile(`^\s*[+-]?\d+`)
)

// decodeBlocks 解析每個結構化資料區塊並攤平陣列與 @graph，格式錯誤的區塊略過
func decodeBlocks(raw []string) []map[string]any {
	var out []map[string]any
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case []any:
			for _, item := range t {
				walk(item)
			}
		case map[string]any:
			out = append(out, t)
			if graph, ok := t["@graph"]; ok {
				walk(graph)
			}
		}
	}

	for _, block := range raw {
		var v any
		if err := common.ParseJSONBytes([]byte(strings.TrimSpace(block)), &v); err != nil {
			continue
		}
		walk(v)
	}
	return out
}

func isRecipe(obj map[string]any) bool {
	switch t := obj["@type"].(type) {
	case string:
		return t == "Recipe"
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func findRecipe(blocks []map[string]any) map[string]any {
	for _, b := range blocks {
		if isRecipe(b) {
			return b
		}
	}
	return nil
}

// servings 讀取份量：數字、數字開頭的字串或陣列第一個元素，其餘情況為 2
func servings(v any) int {
	n := 0
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			n = int(f)
		}
	case float64:
		n = int(t)
	case string:
		if m := leadingInt.FindString(t); m != "" {
			n, _ = strconv.Atoi(strings.TrimSpace(m))
		}
	case []any:
		if len(t) > 0 {
			return servings(t[0])
		}
	}
	if n <= 0 {
		return ingredient.DefaultServings
	}
	return n
}

func ingredientLines(v any) []ingredient.Parsed {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]ingredient.Parsed, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, ingredient.Parse(s))
		}
	}
	return out
}

// instructionItems 展開 HowToSection，單一字串視為一個步驟
func instructionItems(v any) []any {
	switch t := v.(type) {
	case string:
		return []any{t}
	case []any:
		var out []any
		for _, item := range t {
			if obj, ok := item.(map[string]any); ok && obj["@type"] == "HowToSection" {
				out = append(out, instructionItems(obj["itemListElement"])...)
				continue
			}
			out = append(out, item)
		}
		return out
	}
	return nil
}

func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(markup.ReplaceAllString(s, "")))
}

// splitSentences 在句號、驚嘆號、問號之後切分
func splitSentences(text string) []string {
	var out []string
	prev := 0
	for _, m := range sentenceBreak.FindAllStringIndex(text, -1) {
		if chunk := strings.TrimSpace(text[prev : m[0]+1]); chunk != "" {
			out = append(out, chunk)
		}
		prev = m[1]
	}
	if chunk := strings.TrimSpace(text[prev:]); chunk != "" {
		out = append(out, chunk)
	}
	return out
}

// formatStep 組成 "標題\n• 句子\n• 句子"
func formatStep(title, body string) string {
	lines := []string{title}
	for _, chunk := range splitSentences(cleanText(body)) {
		lines = append(lines, "• "+chunk)
	}
	return strings.Join(lines, "\n")
}

func absolutize(ref, base string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// imageRef 支援字串、陣列第一個元素與 {url} 物件
func imageRef(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			return imageRef(t[0])
		}
	case map[string]any:
		if u, ok := t["url"].(string); ok {
			return u
		}
	}
	return ""
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

// steps 產生步驟文字與對齊的步驟圖片（缺圖為空字串）
func steps(v any, pageURL string) ([]string, []string) {
	items := instructionItems(v)
	texts := make([]string, 0, len(items))
	images := make([]string, 0, len(items))

	for i, item := range items {
		var title, body, img string
		switch t := item.(type) {
		case string:
			body = t
		case map[string]any:
			title = cleanText(stringField(t, "name"))
			body = stringField(t, "text")
			img = imageRef(t["image"])
		default:
			continue
		}
		if title == "" {
			title = "Paso " + strconv.Itoa(i+1)
		}
		texts = append(texts, formatStep(title, body))
		if img != "" {
			img = absolutize(img, pageURL)
		}
		images = append(images, img)
	}
	return texts, images
}
