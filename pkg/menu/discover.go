package menu

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xhad/siteqa/pkg/facts"
)

var menuHints = []string{
	"menu", "speisekarte", "karte", "essen", "food", "drinks", "getränke",
	"mittags", "mittagsmenü", "wochenkarte", "carta", "menú",
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	".bmp": true, ".tif": true, ".tiff": true,
}

// Discover returns candidate menu URLs found on a homepage: JSON-LD hasMenu
// entries first, then anchors that look like menus. URLs are resolved
// against website and de-duplicated in order.
func Discover(website string, doc *goquery.Document) []string {
	base, err := url.Parse(website)
	if err != nil {
		return nil
	}

	var out []string
	seen := map[string]bool{}
	add := func(ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "#") {
			return
		}
		u, err := url.Parse(ref)
		if err != nil {
			return
		}
		abs := base.ResolveReference(u)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		s := abs.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, obj := range facts.JSONLDObjects(doc) {
		for _, ref := range hasMenuRefs(obj["hasMenu"]) {
			add(ref)
		}
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if looksLikeMenu(strings.ToLower(s.Text()), strings.ToLower(href)) {
			add(href)
		}
	})
	return out
}

func hasMenuRefs(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, hasMenuRefs(item)...)
		}
		return out
	case map[string]any:
		if u := facts.String(t["url"]); u != "" {
			return []string{u}
		}
		if id := facts.String(t["@id"]); id != "" {
			return []string{id}
		}
	}
	return nil
}

func looksLikeMenu(text, href string) bool {
	for _, h := range menuHints {
		if strings.Contains(text, h) || strings.Contains(href, h) {
			return true
		}
	}
	ext := extension(href)
	return ext == ".pdf" || imageExts[ext]
}

// extension returns the lowercased file extension of a URL path, ignoring
// any query string.
func extension(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		raw = u.Path
	}
	return strings.ToLower(path.Ext(raw))
}
