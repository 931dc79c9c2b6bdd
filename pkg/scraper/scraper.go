// Package scraper discovers and extracts text from the pages of a single
// website.
package scraper

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/internal/types"
	"github.com/xhad/siteqa/pkg/fetch"
)

const DefaultPageLimit = 10

type ScraperConfig struct {
	PageLimit int
	// RateLimit is in requests per second. Zero means 2, negative disables
	// limiting.
	RateLimit      float64
	IgnorePatterns []string
	IgnoreRobots   bool
	UserAgent      string
	// OnProgress is called with the URL of every page that yielded a
	// document.
	OnProgress func(url string)
}

// Crawler walks a site breadth-first starting from one URL, staying on the
// start host.
type Crawler struct {
	config  ScraperConfig
	fetcher types.Fetcher
	limiter *rate.Limiter
}

var skipExtensions = map[string]bool{
	".pdf": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".svg": true, ".bmp": true, ".tif": true, ".tiff": true,
	".ico": true, ".css": true, ".js": true, ".json": true, ".xml": true,
	".zip": true, ".gz": true, ".mp3": true, ".mp4": true, ".avi": true,
	".mov": true, ".woff": true, ".woff2": true, ".ttf": true, ".doc": true,
	".docx": true, ".xls": true, ".xlsx": true,
}

func NewWithConfig(fetcher types.Fetcher, config ScraperConfig) *Crawler {
	if config.PageLimit <= 0 {
		config.PageLimit = DefaultPageLimit
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.UserAgent == "" {
		config.UserAgent = fetch.DefaultUserAgent
	}

	limit := rate.Limit(config.RateLimit)
	if config.RateLimit < 0 {
		limit = rate.Inf
	}

	return &Crawler{
		config:  config,
		fetcher: fetcher,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func New(fetcher types.Fetcher) *Crawler {
	return NewWithConfig(fetcher, ScraperConfig{})
}

// NormalizeURL strips the fragment and any trailing slash. It is the
// identity of a page, not a URL to fetch or resolve against.
func NormalizeURL(raw string) string {
	return strings.TrimRight(stripFragment(raw), "/")
}

// NormalizeWebsite turns a bare host or URL into the website key the stores
// are partitioned by. Blank input stays blank.
func NormalizeWebsite(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return NormalizeURL(raw)
}

func stripFragment(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// Crawl fetches up to pageLimit pages reachable from startURL on the same
// host and returns the ones that yielded text. A pageLimit <= 0 uses the
// configured limit. Per-page failures are logged and skipped, and a cancelled
// context returns what was collected so far.
func (c *Crawler) Crawl(ctx context.Context, startURL string, pageLimit int) ([]models.ExtractedDocument, error) {
	if pageLimit <= 0 {
		pageLimit = c.config.PageLimit
	}

	start, err := url.Parse(startURL)
	if err != nil || start.Host == "" {
		if err == nil {
			err = eris.Errorf("scraper: %q has no host", startURL)
		}
		return nil, eris.Wrap(err, "scraper: parse start url")
	}

	robots := c.loadRobots(ctx, start)

	// The queue holds fetchable URLs; visited is keyed by NormalizeURL.
	host := start.Host
	startKey := NormalizeURL(startURL)
	visited := map[string]bool{}
	queue := []string{stripFragment(startURL)}
	var docs []models.ExtractedDocument

	for len(queue) > 0 && len(docs) < pageLimit {
		current := queue[0]
		queue = queue[1:]
		key := NormalizeURL(current)
		if visited[key] {
			continue
		}
		visited[key] = true

		if !c.allowed(current, robots) {
			continue
		}
		if err := c.limiter.Wait(ctx); err != nil {
			break
		}

		page, ok := c.fetchPage(ctx, current)
		if !ok {
			continue
		}

		// Relative links resolve against where the page ended up after
		// redirects. The start page may move hosts; later pages may not.
		final, err := url.Parse(page.URL)
		if err != nil {
			continue
		}
		if key == startKey {
			host = final.Host
		} else if final.Host != host {
			zap.L().Debug("scraper: skipping off-host redirect", zap.String("url", current), zap.String("final", page.URL))
			continue
		}
		finalKey := NormalizeURL(page.URL)
		if finalKey != key && visited[finalKey] {
			continue
		}
		visited[finalKey] = true

		text, title := Extract(page.RawHTML, page.URL)
		if text == "" {
			zap.L().Debug("scraper: no text", zap.String("url", page.URL))
			continue
		}
		docs = append(docs, models.ExtractedDocument{
			URL:       finalKey,
			Title:     title,
			Text:      text,
			FetchedAt: time.Now().UTC(),
		})
		if c.config.OnProgress != nil {
			c.config.OnProgress(finalKey)
		}

		for _, link := range c.links(page.RawHTML, final, host) {
			if !visited[NormalizeURL(link)] {
				queue = append(queue, link)
			}
		}
	}

	zap.L().Info("scraper: crawl finished",
		zap.String("start", startURL),
		zap.Int("pages", len(docs)),
		zap.Int("visited", len(visited)),
	)
	return docs, nil
}

func (c *Crawler) fetchPage(ctx context.Context, pageURL string) (*models.CrawledPage, bool) {
	resp, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		zap.L().Warn("scraper: fetch failed", zap.String("url", pageURL), zap.Error(err))
		return nil, false
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Debug("scraper: skipping status", zap.String("url", pageURL), zap.Int("status", resp.StatusCode))
		return nil, false
	}
	if !fetch.IsHTML(resp.ContentType) {
		zap.L().Debug("scraper: skipping non-html", zap.String("url", pageURL), zap.String("content_type", resp.ContentType))
		return nil, false
	}
	finalURL := resp.URL
	if finalURL == "" {
		finalURL = pageURL
	}
	return &models.CrawledPage{
		URL:         finalURL,
		RawHTML:     string(resp.Body),
		ContentType: resp.ContentType,
		StatusCode:  resp.StatusCode,
	}, true
}

func (c *Crawler) loadRobots(ctx context.Context, start *url.URL) *robotstxt.Group {
	if c.config.IgnoreRobots {
		return nil
	}
	robotsURL := (&url.URL{Scheme: start.Scheme, Host: start.Host, Path: "/robots.txt"}).String()
	resp, err := c.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		zap.L().Debug("scraper: robots.txt unavailable", zap.String("url", robotsURL), zap.Error(err))
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		zap.L().Debug("scraper: robots.txt unparsable", zap.String("url", robotsURL), zap.Error(err))
		return nil
	}
	return data.FindGroup(c.config.UserAgent)
}

func (c *Crawler) allowed(pageURL string, robots *robotstxt.Group) bool {
	for _, pattern := range c.config.IgnorePatterns {
		if strings.Contains(pageURL, pattern) {
			return false
		}
	}
	if robots == nil {
		return true
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	return robots.Test(p)
}

// links returns the same-host links of a page in document order, fragments
// stripped and deduplicated by NormalizeURL.
func (c *Crawler) links(rawHTML string, base *url.URL, host string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		if abs.Host != host {
			return
		}
		if skipExtensions[strings.ToLower(path.Ext(abs.Path))] {
			return
		}
		link := abs.String()
		key := NormalizeURL(link)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, link)
	})
	return out
}
