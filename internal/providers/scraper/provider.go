package scraper

import (
	"context"
	"fmt"

	"github.com/lumenlabs/companion/internal/httpx"
	"github.com/lumenlabs/companion/internal/monitoring"
	"github.com/lumenlabs/companion/internal/types"
)

// Provider exposes web scraping as a service
type Provider struct {
	fetch    *FetchOps
	content  *ContentOps
	metadata *MetadataOps
}

// NewProvider creates a scraper provider
func NewProvider(client *httpx.Client, metrics *monitoring.Metrics) *Provider {
	ops := newHTMLOps()
	return &Provider{
		fetch:    &FetchOps{htmlOps: ops, client: client, metrics: metrics},
		content:  &ContentOps{htmlOps: ops},
		metadata: &MetadataOps{htmlOps: ops},
	}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	tools := p.fetch.GetTools()
	tools = append(tools, p.content.GetTools()...)
	tools = append(tools, p.metadata.GetTools()...)

	return types.Service{
		ID:          "scraper",
		Name:        "Scraper Service",
		Description: "Web page fetching and content extraction",
		Category:    types.CategoryScraper,
		Capabilities: []string{
			"scrape", "fetch", "select", "xpath", "metadata", "clean",
		},
		Tools: tools,
	}
}

// Execute dispatches a tool call
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "scraper.scrape":
		return p.fetch.Scrape(ctx, params, appCtx)
	case "scraper.fetch":
		return p.fetch.FetchPage(ctx, params, appCtx)
	case "scraper.select":
		return p.content.Select(ctx, params, appCtx)
	case "scraper.xpath":
		return p.content.XPath(ctx, params, appCtx)
	case "scraper.clean":
		return p.content.Clean(ctx, params, appCtx)
	case "scraper.metadata":
		return p.metadata.ExtractMetadata(ctx, params, appCtx)
	}
	return Failure(fmt.Sprintf("unknown tool: %s", toolID))
}
