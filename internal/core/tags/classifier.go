// Package tags 由目錄標籤與食材、標題文字推斷食譜的飲食與菜系標籤
package tags

import (
	"regexp"
	"strings"

	"mise-planner/internal/pkg/common"
)

// 飲食標籤
const (
	Vegan       = "vegan"
	Vegetarian  = "vegetarian"
	Pescatarian = "pescatarian"
	HighProtein = "high-protein"
)

// catalogTags 目錄標籤名稱 → 內部標籤；鍵已去重音並轉小寫
var catalogTags = map[string]string{}

func init() {
	for name, slug := range map[string]string{
		"Vegano":              "vegan",
		"Vegetariano":         "vegetarian",
		"Pescetariano":        "pescatarian",
		"Exprés":              "quick",
		"Familia":             "family",
		"Proteico":            "high-protein",
		"Bajo en calorías":    "low-calorie",
		"Premium":             "premium",
		"Una olla":            "one-pot",
		"Una sartén":          "one-pan",
		"Solo horno":          "oven-only",
		"Picante":             "spicy",
		"Street food":         "street-food",
		"Regional":            "regional",
		"Preparación en 10'":  "quick",
		"Preparación en 15'":  "quick",
		"Rápido":              "quick",
		"<50g carbohidratos":  "low-carb",
		"Novedad":             "new",
		"Lunch":               "lunch",
		"Dinner":              "dinner",
	} {
		catalogTags[fold(name)] = slug
	}
}

// Rule 一條文字規則；Unless 命中時本規則不生效
type Rule struct {
	Pattern *regexp.Regexp
	Unless  *regexp.Regexp
	Tag     string
}

// Matches 規則是否命中已摺疊的文字
func (r Rule) Matches(text string) bool {
	if !r.Pattern.MatchString(text) {
		return false
	}
	return r.Unless == nil || !r.Unless.MatchString(text)
}

func words(list string) *regexp.Regexp {
	return regexp.MustCompile(`\b(` + list + `)\b`)
}

// 比對前文字已去重音並轉小寫，規則皆以無重音形式撰寫
var (
	meatPattern  = words(`pollo|pollastre|ternera|vedella|cerdo|porc|cordero|xai|pavo|gall dindi|chorizo|salchicha|salsitxa|jamon|pernil|bacon|panceta|carne|hamburguesa`)
	fishPattern  = words(`salmon|salmo|atun|tonyina|bacalao|bacalla|gambas|gambes|merluza|lluc|pescado|peix|langostino|langosti|mejillones|musclos|calamar|pulpo|pop|anchoa|anxova|sepia`)
	dairyPattern = words(`leche|llet|queso|formatge|nata|crema|yogur|iogurt|mantequilla|mantega|mozzarella|parmesano|parmesan|ricotta|creme fraiche|cheddar|gouda|feta|mascarpone`)
	eggPattern   = words(`huevo|ou|huevos|ous`)
)

// CuisineRules 菜系規則，依序評估，每條規則獨立生效，可同時命中多個菜系
var CuisineRules = []Rule{
	{Pattern: words(`sushi|nori|wasabi|miso|teriyaki|sake|mirin|dashi|edamame|udon|ramen|soba|katsu|tempura`), Tag: "japanese"},
	{Pattern: words(`thai|pad thai|curry.*thai|lemongrass|hierba limon|galangal|nam pla|salsa.*pescado|leche.*coco.*curry`), Tag: "thai"},
	{Pattern: words(`chino|china|wok|hoisin|five.?spice|dim.?sum|chow.?mein|szechuan|sichuan|tofu.*soja`), Tag: "chinese"},
	{Pattern: words(`korean|coreano|gochujang|kimchi|bibimbap|bulgogi|tteokbokki`), Tag: "korean"},
	{Pattern: words(`curcuma|garam.?masala|tandoori|naan|paneer|tikka|masala|dal|dhal`), Tag: "indian"},
	{Pattern: words(`curry`), Unless: regexp.MustCompile(`curry.*thai`), Tag: "indian"},
	{Pattern: words(`mexicano|taco|burrito|quesadilla|enchilada|jalapeno|chipotle|guacamole|tortilla.*maiz|nachos|fajita`), Tag: "mexican"},
	{Pattern: words(`italiano|italiana|pasta|espagueti|spaghetti|penne|rigatoni|lasana|lasagna|risotto|pesto|carbonara|aglio|bolognese|bolonesa|gnocchi|ravioli|focaccia`), Tag: "italian"},
	{Pattern: words(`mediterraneo|feta|hummus|couscous|cuscus|tabule|falafel|pita|tzatziki|aceitunas|olivas`), Tag: "mediterranean"},
	{Pattern: words(`espanol|espanola|tortilla.*espanola|paella|gazpacho|pimenton|pimento|chorizo.*patata`), Tag: "spanish"},
	{Pattern: words(`soja|salsa.*soja|jengibre|gingebre|sesamo|sesam|sriracha|sambal|wonton|gyoza|spring.?roll`), Tag: "asian"},
	{Pattern: words(`frances|francesa|bearnesa|gratinado|gratin|ratatouille|bourguignon|quiche|croque|dijon`), Tag: "french"},
	{Pattern: words(`griego|griega|souvlaki|gyros|moussaka|musaka|spanakopita|kalamata|halloumi`), Tag: "greek"},
	{Pattern: words(`shawarma|zaatar|za.?atar|sumac|zumaque|tahini|harissa|ras el hanout|baba ganoush|kofta|libanes|marroqui|tajine`), Tag: "middle-eastern"},
	{Pattern: words(`burger|bbq|barbacoa|americano|americana|mac.?n.?cheese|coleslaw|pulled pork|hot dog|brownie|cajun`), Tag: "american"},
	{Pattern: words(`vietnamita|pho|banh mi|bun cha|nuoc cham|rollitos.*arroz`), Tag: "vietnamese"},
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(common.StripAccents(s)))
}

// MapCatalogTags 目錄標籤名稱轉為內部標籤，未知名稱直接丟棄
func MapCatalogTags(names []string) []string {
	var out []string
	for _, name := range names {
		if slug, ok := catalogTags[fold(name)]; ok {
			out = append(out, slug)
		}
	}
	return MergeTags(nil, out)
}

func cuisines(text string) []string {
	var out []string
	for _, rule := range CuisineRules {
		if rule.Matches(text) {
			out = append(out, rule.Tag)
		}
	}
	return out
}

// ClassifyIngredients 由食材名稱推斷飲食與菜系標籤
func ClassifyIngredients(names []string) []string {
	text := fold(strings.Join(names, " "))
	if text == "" {
		return nil
	}

	hasMeat := meatPattern.MatchString(text)
	hasFish := fishPattern.MatchString(text)
	hasDairy := dairyPattern.MatchString(text)
	hasEgg := eggPattern.MatchString(text)

	var out []string
	if !hasMeat && !hasFish {
		if !hasDairy && !hasEgg {
			out = append(out, Vegan)
		} else {
			out = append(out, Vegetarian)
		}
	}
	if hasFish && !hasMeat {
		out = append(out, Pescatarian)
	}
	if hasMeat || hasFish {
		out = append(out, HighProtein)
	}

	return MergeTags(out, cuisines(text))
}

// ClassifyTitle 由標題推斷菜系（不推斷飲食）
func ClassifyTitle(titles ...string) []string {
	text := fold(strings.Join(titles, " "))
	if text == "" {
		return nil
	}
	return MergeTags(nil, cuisines(text))
}

// Classify 合併目錄標籤、食材推斷與標題推斷
func Classify(ingredientNames []string, title string, catalogTagNames []string) []string {
	return MergeTags(nil,
		MapCatalogTags(catalogTagNames),
		ClassifyIngredients(ingredientNames),
		ClassifyTitle(title),
	)
}

// MergeTags 依出現順序合併並去重，空字串會被略過
func MergeTags(existing []string, sets ...[]string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(existing))
	add := func(list []string) {
		for _, tag := range list {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	add(existing)
	for _, set := range sets {
		add(set)
	}
	return out
}

// Equal 兩組標籤作為集合是否相同
func Equal(a, b []string) bool {
	as := MergeTags(nil, a)
	bs := MergeTags(nil, b)
	if len(as) != len(bs) {
		return false
	}
	in := make(map[string]bool, len(as))
	for _, t := range as {
		in[t] = true
	}
	for _, t := range bs {
		if !in[t] {
			return false
		}
	}
	return true
}
