// Package fetcher is the HTTP-only acquisition path: one GET, no script
// execution. It decodes the page to UTF-8 and tells whether the response
// is a usable document or a script shell that needs the browser.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// maxBody caps the download.
const maxBody = 10 << 20

// Result is the outcome of an HTTP fetch.
type Result struct {
	URL        string // final URL after redirects
	HTML       []byte // UTF-8
	Charset    string // encoding the body was decoded from
	StatusCode int
	Truncated  bool // body hit the size cap
	Sufficient bool // enough server-rendered content, no browser needed
}

// Fetcher performs HTTP GETs.
type Fetcher struct {
	client *http.Client
	ua     string
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client. Default: 30s timeout.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.ua = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		ua:     "Mozilla/5.0 (compatible; domsynth/1.0)",
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch GETs pageURL. Non-2xx statuses and non-HTML content types are
// errors.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetcher: request %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetcher: %s: status %d", pageURL, resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !isHTML(ct) {
		return nil, fmt.Errorf("fetcher: %s: not an HTML document (%s)", pageURL, ct)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("fetcher: read %s: %w", pageURL, err)
	}
	res := &Result{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode}
	if len(raw) > maxBody {
		raw, res.Truncated = raw[:maxBody], true
	}
	if res.HTML, res.Charset, err = decode(raw, ct); err != nil {
		return nil, fmt.Errorf("fetcher: decode %s: %w", pageURL, err)
	}
	res.Sufficient = IsSufficient(res.HTML)

	f.logger.Debug("fetcher: fetched",
		"url", res.URL, "status", res.StatusCode, "size", len(res.HTML),
		"charset", res.Charset, "truncated", res.Truncated, "sufficient", res.Sufficient)
	return res, nil
}

// isHTML accepts HTML and XHTML, and responses without a usable type.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// decode converts body to UTF-8 using the header charset, a BOM or a
// <meta> declaration. An undeclared body that is valid UTF-8 is kept.
func decode(body []byte, contentType string) ([]byte, string, error) {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return body, "utf-8", nil
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, name, err
	}
	return out, name, nil
}
