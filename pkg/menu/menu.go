// Package menu discovers restaurant menus linked from a homepage, extracts
// their text from HTML, PDF or images and structures it into items.
package menu

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/internal/types"
	"github.com/xhad/siteqa/pkg/fetch"
	"github.com/xhad/siteqa/pkg/strategy"
)

const (
	DefaultMaxCandidates = 6
	DefaultConcurrency   = 3
	DefaultParseTimeout  = 60 * time.Second
)

// Result aliases the profile contribution of the menu pipeline.
type Result = models.MenuResult

type Config struct {
	MaxCandidates int
	Concurrency   int
	ParseTimeout  time.Duration
}

// Extractor implements facts.MenuExtractor.
type Extractor struct {
	fetcher types.Fetcher
	pdf     types.TextParser
	ocr     types.TextParser
	config  Config
}

// NewExtractor builds an Extractor. pdf and ocr may be nil, in which case
// those asset kinds are skipped.
func NewExtractor(fetcher types.Fetcher, pdf, ocr types.TextParser, config Config) *Extractor {
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = DefaultMaxCandidates
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	if config.ParseTimeout <= 0 {
		config.ParseTimeout = DefaultParseTimeout
	}
	return &Extractor{fetcher: fetcher, pdf: pdf, ocr: ocr, config: config}
}

// ExtractMenu discovers and parses the menus of a restaurant homepage. It
// never fails: unreadable candidates are logged and skipped.
func (e *Extractor) ExtractMenu(ctx context.Context, website, homepageHTML string) Result {
	log := zap.L().With(zap.String("website", website))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(homepageHTML))
	if err != nil {
		log.Warn("menu: unparsable homepage", zap.Error(err))
		return Result{}
	}

	urls := Discover(website, doc)
	candidates := urls
	if len(candidates) > e.config.MaxCandidates {
		candidates = candidates[:e.config.MaxCandidates]
	}

	perCandidate := make([][]models.MenuItem, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)
	for i, u := range candidates {
		g.Go(func() error {
			text, err := e.candidateText(gctx, u)
			if err != nil {
				log.Warn("menu: candidate failed", zap.String("url", u), zap.Error(err))
				return nil
			}
			perCandidate[i] = Structure(text)
			return nil
		})
	}
	_ = g.Wait()

	var items []models.MenuItem
	for _, it := range perCandidate {
		items = append(items, it...)
	}

	if len(items) == 0 {
		items = Structure(strings.Join(selectionLines(doc.Find("li")), "\n"))
		if len(items) > 0 {
			log.Debug("menu: using homepage list items", zap.Int("items", len(items)))
		}
	}

	return Result{MenuURLs: urls, MenuItems: Finalize(items)}
}

func (e *Extractor) candidateText(ctx context.Context, u string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.ParseTimeout)
	defer cancel()

	resp, err := fetch.FetchOK(ctx, e.fetcher, u)
	if err != nil {
		return "", err
	}

	switch kindOf(u, resp.ContentType) {
	case kindPDF:
		return parseWith(ctx, e.pdf, "pdf", resp.Body)
	case kindImage:
		return parseWith(ctx, e.ocr, "image", resp.Body)
	default:
		return htmlText(resp.Body), nil
	}
}

func parseWith(ctx context.Context, p types.TextParser, kind string, data []byte) (string, error) {
	if p == nil {
		return "", eris.Errorf("menu: no %s parser configured", kind)
	}
	return p.ExtractText(ctx, data)
}

type assetKind int

const (
	kindHTML assetKind = iota
	kindPDF
	kindImage
)

func kindOf(u, contentType string) assetKind {
	ct := strings.ToLower(contentType)
	ext := extension(u)
	switch {
	case strings.Contains(ct, "pdf") || ext == ".pdf":
		return kindPDF
	case strings.Contains(ct, "image") || imageExts[ext]:
		return kindImage
	default:
		return kindHTML
	}
}

// htmlText returns list item and table cell text of a menu page, or its
// paragraphs when it has neither.
func htmlText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	out := strategy.First(context.Background(),
		strategy.Of("lists", func(context.Context) strategy.Outcome[[]string] {
			return nonEmpty(append(selectionLines(doc.Find("li")), selectionLines(doc.Find("td"))...))
		}),
		strategy.Of("paragraphs", func(context.Context) strategy.Outcome[[]string] {
			return nonEmpty(selectionLines(doc.Find("p")))
		}),
	)
	return strings.Join(out.Value, "\n")
}

func nonEmpty(lines []string) strategy.Outcome[[]string] {
	if len(lines) == 0 {
		return strategy.NotFound[[]string]()
	}
	return strategy.Found(lines)
}

func selectionLines(sel *goquery.Selection) []string {
	var lines []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			lines = append(lines, t)
		}
	})
	return lines
}
