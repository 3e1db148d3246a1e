package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HeadlessConfig controls the chromedp renderer.
type HeadlessConfig struct {
	UserAgent      string
	NavTimeout     time.Duration
	MaxConcurrency int
	DomainQPS      float64
}

// ChromedpRenderer renders pages in headless Chrome. Concurrency is bounded
// by a semaphore and each domain is rate limited so government sites are
// not hammered by render escalations.
type ChromedpRenderer struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	sem             chan struct{}
	timeout         time.Duration
	domainQPS       float64
	domainLimiters  sync.Map
	userAgent       string
}

// NewChromedpRenderer starts a shared browser process for render calls.
func NewChromedpRenderer(cfg HeadlessConfig, logger *zap.Logger) (*ChromedpRenderer, error) {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &ChromedpRenderer{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		sem:             make(chan struct{}, cfg.MaxConcurrency),
		timeout:         cfg.NavTimeout,
		domainQPS:       cfg.DomainQPS,
		userAgent:       cfg.UserAgent,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (r *ChromedpRenderer) Close() {
	if r == nil {
		return
	}
	r.browserCancel()
	r.allocatorCancel()
}

// Render navigates to rawURL and returns the rendered document HTML.
func (r *ChromedpRenderer) Render(ctx context.Context, rawURL string) ([]byte, error) {
	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		return nil, fmt.Errorf("render %s: %w", rawURL, ctx.Err())
	}

	if err := r.waitDomain(ctx, rawURL); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()
	runCtx, runCancel := context.WithTimeout(tabCtx, r.timeout)
	defer runCancel()

	var html string
	err := chromedp.Run(runCtx,
		network.Enable(),
		emulation.SetDeviceMetricsOverride(1280, 1024, 1.0, false),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}
	r.logger.Debug("rendered page", zap.String("url", rawURL), zap.Int("bytes", len(html)))
	return []byte(html), nil
}

// waitDomain applies the per-domain rate limit before navigation.
func (r *ChromedpRenderer) waitDomain(ctx context.Context, rawURL string) error {
	if r.domainQPS <= 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("render %s: %w", rawURL, err)
	}
	limiterAny, _ := r.domainLimiters.LoadOrStore(
		u.Hostname(),
		rate.NewLimiter(rate.Limit(r.domainQPS), 1),
	)
	limiter := limiterAny.(*rate.Limiter)
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("render %s: rate limit wait: %w", rawURL, err)
	}
	return nil
}
