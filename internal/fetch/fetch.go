// Package fetch retrieves the plain text of policy source documents. A URL
// whose path ends in .pdf is downloaded and run through PDF text
// extraction; anything else is fetched as HTML and reduced to its body
// text. Pages that look like JS-rendered shells can optionally be
// re-fetched through a headless browser before text extraction.
package fetch

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// DefaultMaxTextChars is the excerpt cap applied to HTML body text.
const DefaultMaxTextChars = 9000

// TextSource retrieves the plain text of one source document.
type TextSource interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}

// Renderer fetches a page through a headless browser and returns the
// rendered HTML.
type Renderer interface {
	Render(ctx context.Context, rawURL string) ([]byte, error)
}

// Detector decides whether a static HTML document needs JS rendering.
type Detector interface {
	NeedsJS(body []byte) bool
}

// Config controls the fetch client.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxTextChars int
}

// Client implements TextSource over colly (HTML) and a plain HTTP download
// plus PDF text extraction (PDF). Renderer and Detector are optional; when
// both are set, pages the detector flags are re-fetched headlessly.
type Client struct {
	cfg       Config
	collector *colly.Collector
	renderer  Renderer
	detector  Detector
	logger    *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithRenderer enables the headless fallback.
func WithRenderer(r Renderer, d Detector) Option {
	return func(c *Client) {
		c.renderer = r
		c.detector = d
	}
}

// New builds a fetch Client.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxTextChars == 0 {
		cfg.MaxTextChars = DefaultMaxTextChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg:       cfg,
		collector: colly.NewCollector(colly.Async(false)),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchText retrieves the bounded plain text of the document at rawURL.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	if IsPDF(rawURL) {
		return c.fetchPDFText(ctx, rawURL)
	}
	return c.fetchHTMLText(ctx, rawURL)
}

// IsPDF reports whether the URL path ends in .pdf, case-insensitively.
func IsPDF(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.HasSuffix(strings.ToLower(rawURL), ".pdf")
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

// collapseText folds whitespace runs into single spaces, trims, and caps
// the result at max runes.
func collapseText(s string, max int) string {
	s = strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
	runes := []rune(s)
	if max > 0 && len(runes) > max {
		return string(runes[:max])
	}
	return s
}
