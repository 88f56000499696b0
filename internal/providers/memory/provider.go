// Package memory exposes the semantic memory engine as a service.
package memory

import (
	"context"
	"fmt"

	memstore "github.com/lumenlabs/companion/internal/memory"
	"github.com/lumenlabs/companion/internal/types"
)

// Provider wraps the memory store as a registry service
type Provider struct {
	store *memstore.Store
}

// NewProvider creates a memory provider over the given store
func NewProvider(store *memstore.Store) *Provider {
	return &Provider{store: store}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "memory",
		Name:        "Memory Service",
		Description: "Store and search the companion's long-term memory",
		Category:    types.CategoryMemory,
		Capabilities: []string{
			"add", "search", "list", "delete", "count", "semantic_search",
		},
		Tools: []types.Tool{
			{
				ID:          "memory.add",
				Name:        "Add Memory",
				Description: "Store a new memory entry",
				Parameters: []types.Parameter{
					{Name: "text", Type: "string", Description: "Memory text", Required: true},
					{Name: "tags", Type: "array", Description: "Tags", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "memory.search",
				Name:        "Search Memory",
				Description: "Rank memories against a query",
				Parameters: []types.Parameter{
					{Name: "query", Type: "string", Description: "Search query", Required: true},
					{Name: "limit", Type: "number", Description: "Max results (default 10)", Required: false},
					{Name: "min_score", Type: "number", Description: "Score floor", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "memory.list",
				Name:        "List Memories",
				Description: "List memories newest first",
				Parameters: []types.Parameter{
					{Name: "limit", Type: "number", Description: "Max results (0 = all)", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "memory.delete",
				Name:        "Delete Memory",
				Description: "Remove a memory entry",
				Parameters: []types.Parameter{
					{Name: "id", Type: "string", Description: "Memory ID", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "memory.count",
				Name:        "Count Memories",
				Description: "Number of stored memories",
				Parameters:  []types.Parameter{},
				Returns:     "number",
			},
		},
	}
}

// Execute dispatches a tool call
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "memory.add":
		return p.add(ctx, params)
	case "memory.search":
		return p.search(ctx, params)
	case "memory.list":
		return p.list(params)
	case "memory.delete":
		return p.delete(params)
	case "memory.count":
		return success(map[string]interface{}{"count": p.store.Count()})
	}
	return failure(fmt.Sprintf("unknown tool: %s", toolID))
}

func (p *Provider) add(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	text, ok := params["text"].(string)
	if !ok || text == "" {
		return failure("text parameter required")
	}

	var tags []string
	if raw, ok := params["tags"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				tags = append(tags, s)
			}
		}
	}

	entry, err := p.store.Add(ctx, text, tags)
	if err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{"entry": entry})
}

func (p *Provider) search(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	query, ok := params["query"].(string)
	if !ok || query == "" {
		return failure("query parameter required")
	}
	limit := intParam(params, "limit", 10)
	minScore, _ := params["min_score"].(float64)

	results := p.store.Search(ctx, query, limit, minScore)
	return success(map[string]interface{}{"results": results, "count": len(results)})
}

func (p *Provider) list(params map[string]interface{}) (*types.Result, error) {
	limit := intParam(params, "limit", 0)
	entries := p.store.List(limit)
	return success(map[string]interface{}{"entries": entries, "count": len(entries)})
}

func (p *Provider) delete(params map[string]interface{}) (*types.Result, error) {
	entryID, ok := params["id"].(string)
	if !ok || entryID == "" {
		return failure("id parameter required")
	}
	if err := p.store.Delete(entryID); err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{"deleted": entryID})
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

func failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
