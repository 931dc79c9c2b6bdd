package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/xhad/siteqa/pkg/strategy"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	blockOpenRe  = regexp.MustCompile(`(?i)<(div|p|br|li|td|tr|h[1-6])([\s>/])`)
	blockCloseRe = regexp.MustCompile(`(?i)</(div|p|li|td|tr|h[1-6])>`)
)

// Extract returns the readable text of a page and its <title>. It prefers a
// readability article and falls back to headings and paragraphs. The title
// is nil when the page has none.
func Extract(rawHTML, pageURL string) (string, *string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		zap.L().Debug("scraper: unparsable html", zap.String("url", pageURL), zap.Error(err))
		return "", nil
	}

	var title *string
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		title = &t
	}

	out := strategy.First(context.Background(),
		strategy.Of("readability", func(context.Context) strategy.Outcome[string] {
			return readableText(rawHTML, pageURL)
		}),
		strategy.Of("headings", func(context.Context) strategy.Outcome[string] {
			return outlineText(doc, title)
		}),
	)
	if out.Err != nil {
		zap.L().Debug("scraper: extraction strategies failed", zap.String("url", pageURL), zap.Error(out.Err))
	}
	return out.Value, title
}

func readableText(rawHTML, pageURL string) strategy.Outcome[string] {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return strategy.Failed[string](err)
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return strategy.Failed[string](err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return strategy.NotFound[string]()
	}

	spaced := blockCloseRe.ReplaceAllString(blockOpenRe.ReplaceAllString(article.Content, " <$1$2"), "</$1> ")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(spaced))
	if err != nil {
		return strategy.Failed[string](err)
	}
	text := normalizeText(doc.Text())
	if text == "" {
		return strategy.NotFound[string]()
	}
	return strategy.Found(text)
}

func outlineText(doc *goquery.Document, title *string) strategy.Outcome[string] {
	var lines []string
	if title != nil {
		lines = append(lines, "Title: "+*title)
	}
	doc.Find("h1, h2, h3, p").Each(func(_ int, s *goquery.Selection) {
		text := normalizeText(s.Text())
		if text == "" {
			return
		}
		if tag := goquery.NodeName(s); tag != "p" {
			text = strings.ToUpper(tag) + ": " + text
		}
		lines = append(lines, text)
	})
	if len(lines) == 0 {
		return strategy.NotFound[string]()
	}
	return strategy.Found(strings.Join(lines, "\n"))
}

func normalizeText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
