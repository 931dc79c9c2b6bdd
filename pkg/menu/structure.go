package menu

import (
	"regexp"
	"strings"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/pkg/classify"
)

// priceRe matches a trailing price, optionally with a currency marker on
// either side.
var priceRe = regexp.MustCompile(`(?i)(?:[€$£]\s?)?\b(\d{1,4}(?:[.,]\d{1,2})?)\s?(?:€|eur|euro|\$|chf)?\s*$`)

const nameCutset = " -–·•.:\t"

// Structure turns raw menu text into items, one per non-empty line, tracking
// the most recent section header.
func Structure(text string) []models.MenuItem {
	var items []models.MenuItem
	var section *string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.Join(strings.Fields(raw), " ")
		if line == "" {
			continue
		}

		header := strings.TrimRight(line, ": -–")
		if _, ok := classify.SectionHeaders.Match(header); ok {
			s := header
			section = &s
			continue
		}

		item := models.MenuItem{Section: section, Name: line}
		if loc := priceRe.FindStringSubmatchIndex(line); loc != nil {
			price := line[loc[2]:loc[3]]
			item.Price = &price
			item.Name = line[:loc[0]]
		}
		item.Name = strings.Trim(item.Name, nameCutset)
		if item.Name == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

// Finalize de-duplicates items by section, name and price and caps the
// result at models.MaxMenuItems.
func Finalize(items []models.MenuItem) []models.MenuItem {
	seen := make(map[string]bool, len(items))
	out := make([]models.MenuItem, 0, min(len(items), models.MaxMenuItems))
	for _, it := range items {
		if len(out) == models.MaxMenuItems {
			break
		}
		k := it.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}
