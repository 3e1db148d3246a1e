package fetch

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// fetchHTMLText downloads the page, optionally escalates to the headless
// renderer, and reduces the document to collapsed body text.
func (c *Client) fetchHTMLText(ctx context.Context, rawURL string) (string, error) {
	body, err := c.fetchStatic(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if c.renderer != nil && c.detector != nil && c.detector.NeedsJS(body) {
		rendered, renderErr := c.renderer.Render(ctx, rawURL)
		if renderErr != nil {
			// Rendering is best-effort; fall back to the static document.
			c.logger.Warn("headless render failed, using static HTML",
				zap.String("url", rawURL),
				zap.Error(renderErr),
			)
		} else {
			body = rendered
		}
	}

	text, err := bodyText(body)
	if err != nil {
		return "", fmt.Errorf("parse HTML from %s: %w", rawURL, err)
	}
	return collapseText(text, c.cfg.MaxTextChars), nil
}

// fetchStatic performs one GET through a cloned colly collector.
func (c *Client) fetchStatic(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	collector := c.collector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	collector.Wait()
	if fetchErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch %s: empty response body", rawURL)
	}
	return body, nil
}

// bodyText extracts the concatenated text content of the document body.
func bodyText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", err
	}
	return doc.Find("body").Text(), nil
}
