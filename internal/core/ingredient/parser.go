// Package ingredient 解析、換算與正規化食材行
package ingredient

import (
	"regexp"
	"strconv"
	"strings"
)

// Parsed 解析後的食材行；不符合「數量 單位 名稱」格式時 Quantity 為 nil、Unit 為空
type Parsed struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"qty"`
	Unit     string   `json:"unit,omitempty"`
	Raw      string   `json:"raw"`
}

var linePattern = regexp.MustCompile(`^([\d.,½¼¾⅓⅔]+)\s+(\S+)\s+(.+)$`)

var leadingNumber = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)

var fractions = map[rune]float64{
	'½': 0.5,
	'¼': 0.25,
	'¾': 0.75,
	'⅓': 0.333,
	'⅔': 0.667,
}

// unitSynonyms 單位同義詞 → 標準代碼，鍵為小寫
var unitSynonyms = map[string]string{
	"gramo(s)": "g", "gramos": "g", "gramo": "g", "g": "g",
	"mililitro(s)": "ml", "mililitros": "ml", "mililitro": "ml", "ml": "ml",
	"litro(s)": "L", "litros": "L", "litro": "L",
	"unidad(es)": "u", "unidades": "u", "unidad": "u",
	"sobre(s)": "sobre", "sobres": "sobre", "sobre": "sobre",
	"cucharada(s)": "cda", "cucharadas": "cda", "cucharada": "cda",
	"cucharadita(s)": "cdta", "cucharaditas": "cdta", "cucharadita": "cdta",
	"pizca(s)": "pizca", "pizcas": "pizca", "pizca": "pizca",
	"rodaja(s)": "rodaja", "rodajas": "rodaja", "rodaja": "rodaja",
	"diente(s)": "diente", "dientes": "diente", "diente": "diente",
	"manojo(s)": "manojo", "manojos": "manojo", "manojo": "manojo",
	"rebanada(s)": "rebanada", "rebanadas": "rebanada", "rebanada": "rebanada",
	"lata(s)": "lata", "latas": "lata", "lata": "lata",
}

// Parse 解析一行食材，例如 "250 gramo(s) Muslos de pollo"；永不失敗
func Parse(raw string) Parsed {
	trimmed := strings.TrimSpace(raw)
	m := linePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Parsed{Name: trimmed, Raw: trimmed}
	}

	unit := strings.ToLower(m[2])
	if canonical, ok := unitSynonyms[unit]; ok {
		unit = canonical
	}

	return Parsed{
		Name:     strings.TrimSpace(m[3]),
		Quantity: parseQuantity(m[1]),
		Unit:     unit,
		Raw:      trimmed,
	}
}

// parseQuantity 支援 "1,5"、"½"、"1½"；無法解析時返回 nil
func parseQuantity(s string) *float64 {
	s = strings.Replace(s, ",", ".", 1)

	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	if f, ok := fractions[runes[len(runes)-1]]; ok {
		whole := string(runes[:len(runes)-1])
		if whole == "" {
			return &f
		}
		n, err := strconv.ParseFloat(whole, 64)
		if err != nil {
			return nil
		}
		v := n + f
		return &v
	}

	num := leadingNumber.FindString(s)
	if num == "" {
		return nil
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return nil
	}
	return &v
}
