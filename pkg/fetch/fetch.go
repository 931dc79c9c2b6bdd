// Package fetch performs plain HTTP GETs for the crawler, fact detector and
// menu pipeline.
package fetch

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/internal/types"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; SiteQABot/1.1)"
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 10 << 20
)

type Config struct {
	UserAgent string
	Timeout   time.Duration
	MaxBytes  int64
}

// HTTPFetcher implements types.Fetcher over net/http.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBytes  int64
}

func New(cfg Config) *HTTPFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		maxBytes:  cfg.MaxBytes,
	}
}

// UserAgent is the header value sent with every request.
func (f *HTTPFetcher) UserAgent() string { return f.userAgent }

// Fetch GETs url. Transport errors come back as FetchFailure; any HTTP status
// is returned as a Response for the caller to judge. A deadline already set
// on ctx takes precedence over the fetcher timeout when it is shorter.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*types.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.Fail(models.FetchFailure, url, eris.Wrap(err, "fetch: create request"))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,image/*;q=0.8,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, models.Fail(models.FetchFailure, url, eris.Wrap(err, "fetch: get"))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, models.Fail(models.FetchFailure, url, eris.Wrap(err, "fetch: read body"))
	}

	contentType := resp.Header.Get("Content-Type")
	if IsHTML(contentType) {
		body = decodeHTML(body, contentType)
	}

	return &types.Response{
		URL:         resp.Request.URL.String(),
		Body:        body,
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
	}, nil
}

// FetchOK is Fetch, with non-2xx responses turned into a FetchFailure.
func FetchOK(ctx context.Context, f types.Fetcher, url string) (*types.Response, error) {
	resp, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.Fail(models.FetchFailure, url, eris.Errorf("fetch: status %d", resp.StatusCode))
	}
	return resp, nil
}

// IsHTML reports whether a Content-Type header denotes an HTML document. An
// empty header is treated as HTML.
func IsHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" || strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

func decodeHTML(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}
