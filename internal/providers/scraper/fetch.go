package scraper

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lumenlabs/companion/internal/httpx"
	"github.com/lumenlabs/companion/internal/monitoring"
	"github.com/lumenlabs/companion/internal/types"
)

// FetchOps handles page retrieval and whole-page scraping
type FetchOps struct {
	*htmlOps
	client  *httpx.Client
	metrics *monitoring.Metrics
}

// GetTools returns fetch tool definitions
func (f *FetchOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "scraper.scrape",
			Name:        "Scrape Page",
			Description: "Fetch a URL and extract title, text and links",
			Parameters: []types.Parameter{
				{Name: "url", Type: "string", Description: "Page URL", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "scraper.fetch",
			Name:        "Fetch Page",
			Description: "Fetch raw HTML from a URL",
			Parameters: []types.Parameter{
				{Name: "url", Type: "string", Description: "Page URL", Required: true},
			},
			Returns: "string",
		},
	}
}

// Fetch retrieves a page, enforcing the size cap and http(s)-only URLs
func (f *FetchOps) fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %s", parsed.Scheme)
	}

	var body []byte
	err = f.client.Breaker.Do(func() error {
		if err := f.client.Limiter.Wait(ctx); err != nil {
			return err
		}
		// Stream the body so a hostile page costs at most the cap, not
		// however much it sends.
		resp, err := f.client.Resty.R().SetContext(ctx).SetDoNotParseResponse(true).Get(rawURL)
		if err != nil {
			return err
		}
		raw := resp.RawBody()
		defer raw.Close()
		if resp.IsError() {
			return fmt.Errorf("server returned %d", resp.StatusCode())
		}
		data, err := io.ReadAll(io.LimitReader(raw, maxDocumentSize+1))
		if err != nil {
			return err
		}
		if len(data) > maxDocumentSize {
			return fmt.Errorf("page exceeds maximum size of %d bytes", maxDocumentSize)
		}
		body = data
		return nil
	})
	if err != nil {
		f.record("error")
		return "", err
	}

	f.record("success")
	return string(body), nil
}

func (f *FetchOps) record(status string) {
	if f.metrics != nil {
		f.metrics.ScrapeRequests.WithLabelValues(status).Inc()
	}
}

// FetchPage returns raw HTML
func (f *FetchOps) FetchPage(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	rawURL, ok := strParam(params, "url")
	if !ok || rawURL == "" {
		return Failure("url parameter required")
	}

	body, err := f.fetch(ctx, rawURL)
	if err != nil {
		return Failure(fmt.Sprintf("fetch failed: %v", err))
	}
	return Success(map[string]interface{}{"html": body, "url": rawURL, "size": len(body)})
}

// Scrape fetches a URL and extracts title, text and links
func (f *FetchOps) Scrape(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	rawURL, ok := strParam(params, "url")
	if !ok || rawURL == "" {
		return Failure("url parameter required")
	}

	body, err := f.fetch(ctx, rawURL)
	if err != nil {
		return Failure(fmt.Sprintf("fetch failed: %v", err))
	}

	doc, err := parseDocument(body)
	if err != nil {
		return Failure(fmt.Sprintf("parse failed: %v", err))
	}

	doc.Find("script, style, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := collapseSpace(doc.Find("body").Text())

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		if resolved := resolveLink(rawURL, href); resolved != "" {
			links = append(links, resolved)
		}
	})

	return Success(map[string]interface{}{
		"url":   rawURL,
		"title": title,
		"text":  text,
		"links": dedupe(links),
	})
}

// resolveLink makes relative hrefs absolute against the page URL
func resolveLink(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
