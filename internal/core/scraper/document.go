package scraper

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// document 從 HTML 取出的原始資料
type document struct {
	ogImage string
	jsonLD  []string
	hrefs   []string
}

func attr(t html.Token, key string) string {
	for _, a := range t.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// parseDocument 逐個 token 掃描頁面，屬性順序不影響結果
func parseDocument(body []byte) document {
	var doc document
	z := html.NewTokenizer(bytes.NewReader(body))
	inLD := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			return doc
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			if href := attr(t, "href"); href != "" {
				doc.hrefs = append(doc.hrefs, href)
			}
			switch t.Data {
			case "meta":
				prop := attr(t, "property")
				if prop == "" {
					prop = attr(t, "name")
				}
				if doc.ogImage == "" && strings.EqualFold(prop, "og:image") {
					doc.ogImage = strings.TrimSpace(attr(t, "content"))
				}
			case "script":
				inLD = strings.Contains(strings.ToLower(attr(t, "type")), "ld+json")
			}
		case html.TextToken:
			if inLD {
				doc.jsonLD = append(doc.jsonLD, string(z.Text()))
				inLD = false
			}
		case html.EndTagToken:
			inLD = false
		}
	}
}
