package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lumenlabs/companion/internal/types"
)

// MetadataOps handles meta tag extraction
type MetadataOps struct {
	*htmlOps
}

// GetTools returns metadata tool definitions
func (m *MetadataOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "scraper.metadata",
			Name:        "Extract Metadata",
			Description: "Get meta tags (standard, Open Graph, Twitter)",
			Parameters: []types.Parameter{
				{Name: "html", Type: "string", Description: "HTML content", Required: true},
			},
			Returns: "object",
		},
	}
}

// ExtractMetadata extracts all meta tags organized by type
func (m *MetadataOps) ExtractMetadata(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	htmlStr, ok := strParam(params, "html")
	if !ok || htmlStr == "" {
		return Failure("html parameter required")
	}

	doc, err := parseDocument(htmlStr)
	if err != nil {
		return Failure(fmt.Sprintf("parse failed: %v", err))
	}

	standard := make(map[string]string)
	openGraph := make(map[string]string)
	twitter := make(map[string]string)
	other := make(map[string]string)

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name := s.AttrOr("name", "")
		property := s.AttrOr("property", "")
		content := s.AttrOr("content", "")

		if content == "" {
			return
		}

		if property != "" {
			if strings.HasPrefix(property, "og:") {
				openGraph[property] = content
			} else {
				other[property] = content
			}
		} else if name != "" {
			if strings.HasPrefix(name, "twitter:") {
				twitter[name] = content
			} else {
				standard[name] = content
			}
		}
	})

	return Success(map[string]interface{}{
		"standard":    standard,
		"open_graph":  openGraph,
		"twitter":     twitter,
		"other":       other,
		"title":       strings.TrimSpace(doc.Find("title").First().Text()),
		"total_count": len(standard) + len(openGraph) + len(twitter) + len(other),
	})
}
