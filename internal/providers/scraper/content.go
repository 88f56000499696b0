package scraper

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/lumenlabs/companion/internal/types"
)

// ContentOps handles selection and extraction from HTML
type ContentOps struct {
	*htmlOps
}

// GetTools returns content tool definitions
func (c *ContentOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "scraper.select",
			Name:        "CSS Select",
			Description: "Extract elements matching a CSS selector",
			Parameters: []types.Parameter{
				{Name: "html", Type: "string", Description: "HTML content", Required: true},
				{Name: "selector", Type: "string", Description: "CSS selector", Required: true},
				{Name: "attribute", Type: "string", Description: "Attribute to extract instead of text", Required: false},
			},
			Returns: "array",
		},
		{
			ID:          "scraper.xpath",
			Name:        "XPath Query",
			Description: "Extract elements matching an XPath expression",
			Parameters: []types.Parameter{
				{Name: "html", Type: "string", Description: "HTML content", Required: true},
				{Name: "query", Type: "string", Description: "XPath expression", Required: true},
			},
			Returns: "array",
		},
		{
			ID:          "scraper.clean",
			Name:        "Clean HTML",
			Description: "Sanitize HTML, stripping scripts and unsafe markup",
			Parameters: []types.Parameter{
				{Name: "html", Type: "string", Description: "HTML content", Required: true},
			},
			Returns: "string",
		},
	}
}

// Select extracts elements matching a CSS selector
func (c *ContentOps) Select(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	htmlStr, ok := strParam(params, "html")
	if !ok || htmlStr == "" {
		return Failure("html parameter required")
	}
	selector, ok := strParam(params, "selector")
	if !ok || selector == "" {
		return Failure("selector parameter required")
	}
	attribute, _ := strParam(params, "attribute")

	doc, err := parseDocument(htmlStr)
	if err != nil {
		return Failure(fmt.Sprintf("parse failed: %v", err))
	}

	var results []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if attribute != "" {
			if val, exists := s.Attr(attribute); exists {
				results = append(results, val)
			}
			return
		}
		results = append(results, collapseSpace(s.Text()))
	})

	return Success(map[string]interface{}{"results": results, "count": len(results)})
}

// XPath extracts elements matching an XPath expression
func (c *ContentOps) XPath(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	htmlStr, ok := strParam(params, "html")
	if !ok || htmlStr == "" {
		return Failure("html parameter required")
	}
	query, ok := strParam(params, "query")
	if !ok || query == "" {
		return Failure("query parameter required")
	}

	node, err := parseNode(htmlStr)
	if err != nil {
		return Failure(fmt.Sprintf("parse failed: %v", err))
	}

	matched, err := htmlquery.QueryAll(node, query)
	if err != nil {
		return Failure(fmt.Sprintf("invalid xpath: %v", err))
	}

	results := make([]string, 0, len(matched))
	for _, n := range matched {
		results = append(results, collapseSpace(htmlquery.InnerText(n)))
	}

	return Success(map[string]interface{}{"results": results, "count": len(results)})
}

// Clean sanitizes HTML content
func (c *ContentOps) Clean(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	htmlStr, ok := strParam(params, "html")
	if !ok || htmlStr == "" {
		return Failure("html parameter required")
	}
	if err := checkSize(htmlStr); err != nil {
		return Failure(err.Error())
	}

	cleaned := c.sanitize(htmlStr)
	return Success(map[string]interface{}{"html": cleaned, "size": len(cleaned)})
}
