// Package classify holds the keyword rule tables used for vertical, intent
// and menu-section detection.
package classify

import "strings"

// Rule matches when every All keyword and, if Any is set, at least one Any
// keyword occurs in the lowercased input. Exact rules compare against the
// whole input instead of searching substrings.
type Rule struct {
	Label string
	All   []string
	Any   []string
	Exact bool
}

func (r Rule) matches(text string) bool {
	if r.Exact {
		for _, kw := range r.Any {
			if text == kw {
				return true
			}
		}
		return false
	}
	for _, kw := range r.All {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	if len(r.Any) == 0 {
		return len(r.All) > 0
	}
	for _, kw := range r.Any {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Table is an ordered list of rules; the first match wins.
type Table struct {
	Rules   []Rule
	Default string
}

// Match returns the label of the first matching rule. When nothing matches it
// returns the table default and false.
func (t Table) Match(text string) (string, bool) {
	text = strings.ToLower(text)
	for _, r := range t.Rules {
		if r.matches(text) {
			return r.Label, true
		}
	}
	return t.Default, false
}

// Label is Match without the ok flag.
func (t Table) Label(text string) string {
	label, _ := t.Match(text)
	return label
}

// Intents a question can be short-circuited on, in priority order.
const (
	IntentPhone   = "phone"
	IntentEmail   = "email"
	IntentAddress = "address"
	IntentMenu    = "menu"
)

// VerticalRules classifies a homepage into restaurant, ecommerce or generic.
var VerticalRules = Table{
	Rules: []Rule{
		{Label: "restaurant", All: []string{"menu"}, Any: []string{"restaurant", "cafe", "bar"}},
		{Label: "ecommerce", Any: []string{"products", "shop"}},
	},
	Default: "generic",
}

// IntentRules maps questions onto stored profile facts.
var IntentRules = Table{
	Rules: []Rule{
		{Label: IntentPhone, Any: []string{"phone", "call", "telephone"}},
		{Label: IntentEmail, Any: []string{"email", "e-mail"}},
		{Label: IntentAddress, Any: []string{"address", "where"}},
		{Label: IntentMenu, Any: []string{"menu"}},
	},
}

// SectionHeaders recognizes menu section header lines. Input is expected to
// be a trimmed line with trailing ":", "-" and spaces removed.
var SectionHeaders = Table{
	Rules: []Rule{
		{Label: "section", Exact: true, Any: []string{
			"vorspeisen", "hauptgerichte", "dessert", "desserts", "nachspeisen",
			"beilagen", "getränke", "drinks", "starters", "mains", "main courses",
			"sides", "lunch", "wochenkarte", "mittag", "pizza", "pizzas", "pasta",
			"salad", "salads", "salate", "appetizers", "soups", "suppen",
			"antipasti", "primi", "secondi", "dolci", "entrées", "plats", "boissons",
		}},
	},
}
