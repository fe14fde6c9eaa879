package catalog

import (
	"regexp"
	"strings"

	"mise-planner/internal/pkg/common"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9\s]`)
	spaces    = regexp.MustCompile(`\s+`)
	stopWords = regexp.MustCompile(`\b(con|de|al|a la|en|y|e|del|los|las|el|la|un|una)\b`)
)

// NormalizeForSearch 去除重音、轉小寫並只保留字母數字
func NormalizeForSearch(s string) string {
	s = strings.ToLower(common.StripAccents(s))
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// BuildCandidateQueries 由食譜標題產生由精確到寬鬆的搜尋字串，去重且保持順序
func BuildCandidateQueries(title string) []string {
	t1 := strings.TrimSpace(title)
	t2 := common.FixMojibake(t1)
	t3 := common.StripAccents(t2)
	base := stopWords.ReplaceAllString(NormalizeForSearch(t3), " ")
	base = strings.TrimSpace(spaces.ReplaceAllString(base, " "))

	words := strings.Fields(base)
	short5 := strings.Join(words[:min(5, len(words))], " ")
	short3 := strings.Join(words[:min(3, len(words))], " ")

	seen := make(map[string]bool)
	var out []string
	for _, q := range []string{t1, t2, t3, base, short5, short3} {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}

// ScoreMatch 查詢字詞出現在候選標題中的比例（0–1）
func ScoreMatch(query, candidate string) float64 {
	words := strings.Fields(NormalizeForSearch(query))
	if len(words) == 0 {
		return 0
	}
	cand := NormalizeForSearch(candidate)
	hits := 0
	for _, w := range words {
		if strings.Contains(cand, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}
