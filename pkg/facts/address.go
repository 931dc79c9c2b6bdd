package facts

import (
	"context"
	"regexp"
	"strings"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/pkg/strategy"
)

var (
	streetRe = regexp.MustCompile(`(?i)\b\d{1,5}\s+[A-Z0-9][^\n,]+(?:Street|St\.|Road|Rd\.|Ave|Avenue|Blvd|Way|Lane|Ln\.|Drive|Dr\.|Strasse|Straße|Weg|Platz)\b.*\b\d{4,6}\b`)
	poBoxRe  = regexp.MustCompile(`(?i)P\.?O\.?\s*Box\s*\d{3,7}.*?(?:Dubai|UAE|United Arab Emirates)`)
)

// contactHints mark pages searched first for a street address.
var contactHints = []string{"/contact", "/kontakt", "/about", "/impressum", "/contact-us"}

// resolveAddress looks for a street address in contact-like pages, then in
// the remaining pages, then for a PO box anywhere.
func resolveAddress(ctx context.Context, docs []models.ExtractedDocument) strategy.Outcome[string] {
	var prio, rest []models.ExtractedDocument
	for _, d := range docs {
		if isContactPage(d.URL) {
			prio = append(prio, d)
		} else {
			rest = append(rest, d)
		}
	}

	return strategy.First(ctx,
		strategy.Of("street", func(context.Context) strategy.Outcome[string] {
			return firstMatch(streetRe, append(prio, rest...))
		}),
		strategy.Of("po_box", func(context.Context) strategy.Outcome[string] {
			return firstMatch(poBoxRe, docs)
		}),
	)
}

func isContactPage(u string) bool {
	u = strings.ToLower(u)
	for _, h := range contactHints {
		if strings.Contains(u, h) {
			return true
		}
	}
	return false
}

func firstMatch(re *regexp.Regexp, docs []models.ExtractedDocument) strategy.Outcome[string] {
	for _, d := range docs {
		if m := re.FindString(d.Text); m != "" {
			return strategy.Found(strings.Join(strings.Fields(m), " "))
		}
	}
	return strategy.NotFound[string]()
}
