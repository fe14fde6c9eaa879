package ingredient

import (
	"regexp"
	"strings"

	"mise-planner/internal/pkg/common"
)

type staple struct {
	pattern *regexp.Regexp
	key     string
}

// staples 常備品，依序比對，整詞命中即收斂為同一個鍵（西班牙文與加泰隆尼亞文）
var staples = []staple{
	{regexp.MustCompile(`\b(agua|aigua)\b`), "agua"},
	{regexp.MustCompile(`\b(aceite|oli)\b`), "aceite"},
	{regexp.MustCompile(`\bsal\b`), "sal"},
	{regexp.MustCompile(`\b(pimienta|pebre)\b`), "pimienta"},
	{regexp.MustCompile(`\b(mantequilla|mantega)\b`), "mantequilla"},
	{regexp.MustCompile(`\bvinagre\b`), "vinagre"},
}

var (
	bracketed  = regexp.MustCompile(`[(\[].*?[)\]]`)
	whitespace = regexp.MustCompile(`\s+`)
	forClause  = regexp.MustCompile(`\b(para|per a)\b.*$`)
	elided     = regexp.MustCompile(`\b[dl]['’]`)
	articles   = regexp.MustCompile(`\b(el|la|los|las|de|del|al|els|les)\b`)
)

// StapleKeys 永遠不加入購物清單的常備品鍵
var StapleKeys = map[string]bool{
	"agua":        true,
	"aceite":      true,
	"sal":         true,
	"pimienta":    true,
	"mantequilla": true,
	"vinagre":     true,
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Canonicalize 將顯示名稱轉為穩定的合併鍵
func Canonicalize(displayName string) string {
	s := strings.ToLower(common.StripAccents(displayName))
	s = strings.ReplaceAll(s, "**", "")
	s = collapse(bracketed.ReplaceAllString(s, " "))

	for _, st := range staples {
		if st.pattern.MatchString(s) {
			return st.key
		}
	}

	s = strings.TrimSpace(forClause.ReplaceAllString(s, ""))
	s = elided.ReplaceAllString(s, " ")
	s = articles.ReplaceAllString(s, " ")
	return collapse(s)
}
