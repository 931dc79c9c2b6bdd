package facts

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xhad/siteqa/internal/models"
)

// businessTypes are the schema.org types a profile is projected from.
var businessTypes = map[string]bool{
	"Restaurant":    true,
	"LocalBusiness": true,
	"Organization":  true,
}

// JSONLDObjects decodes every application/ld+json block of a page. List
// blocks and @graph arrays are flattened; malformed blocks are skipped.
func JSONLDObjects(doc *goquery.Document) []map[string]any {
	var objects []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return
		}
		objects = flatten(objects, data)
	})
	return objects
}

func flatten(acc []map[string]any, v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			acc = flatten(acc, item)
		}
	case map[string]any:
		acc = append(acc, t)
		if graph, ok := t["@graph"]; ok {
			acc = flatten(acc, graph)
		}
	}
	return acc
}

// HasType reports whether the object's @type, a string or a list, contains
// one of the wanted types.
func HasType(obj map[string]any, wanted map[string]bool) bool {
	for _, t := range Strings(obj["@type"]) {
		if wanted[t] {
			return true
		}
	}
	return false
}

// profileFromJSONLD projects the first business object onto a profile.
func profileFromJSONLD(objects []map[string]any) (models.BusinessProfile, bool) {
	for _, obj := range objects {
		if !HasType(obj, businessTypes) {
			continue
		}
		return models.BusinessProfile{
			Name:         String(obj["name"]),
			Telephone:    String(obj["telephone"]),
			Email:        strings.TrimPrefix(String(obj["email"]), "mailto:"),
			Address:      address(obj["address"]),
			Geo:          geo(obj["geo"]),
			OpeningHours: Strings(obj["openingHours"]),
			PriceRange:   String(obj["priceRange"]),
			Social:       Strings(obj["sameAs"]),
			Cuisines:     Strings(obj["servesCuisine"]),
		}, true
	}
	return models.BusinessProfile{}, false
}

// String renders a scalar JSON-LD value. Lists yield their first scalar.
func String(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		for _, item := range t {
			if s := String(item); s != "" {
				return s
			}
		}
	}
	return ""
}

// Strings renders a value that may be a single scalar or a list.
func Strings(v any) []string {
	switch t := v.(type) {
	case []any:
		var out []string
		for _, item := range t {
			if s := String(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := String(v); s != "" {
			return []string{s}
		}
	}
	return nil
}

func address(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s := address(item); s != "" {
				return s
			}
		}
	case map[string]any:
		locality := strings.TrimSpace(String(t["postalCode"]) + " " + String(t["addressLocality"]))
		country := String(t["addressCountry"])
		if c, ok := t["addressCountry"].(map[string]any); ok {
			country = String(c["name"])
		}
		var parts []string
		for _, p := range []string{String(t["streetAddress"]), locality, String(t["addressRegion"]), country} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func geo(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	lat, lng := String(obj["latitude"]), String(obj["longitude"])
	if lat == "" || lng == "" {
		return ""
	}
	return lat + "," + lng
}
