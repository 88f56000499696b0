// Package directory provides sandboxed directory listing, traversal and
// search over the companion workspace.
package directory

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	"github.com/lumenlabs/companion/internal/monitoring"
	"github.com/lumenlabs/companion/internal/sandbox"
	"github.com/lumenlabs/companion/internal/types"
)

const defaultLimit = 100

// Entry describes a directory member
type Entry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	IsDir    bool      `json:"is_dir"`
	Modified time.Time `json:"modified"`
}

// Node is a tree view of a directory
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	IsDir    bool    `json:"is_dir"`
	Children []*Node `json:"children,omitempty"`
}

// Provider exposes directory operations as a service
type Provider struct {
	guard   *sandbox.Guard
	metrics *monitoring.Metrics
}

// NewProvider creates a directory provider bound to the sandbox guard
func NewProvider(guard *sandbox.Guard, metrics *monitoring.Metrics) *Provider {
	return &Provider{guard: guard, metrics: metrics}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "directory",
		Name:        "Directory Service",
		Description: "Directory listing, traversal and search inside the workspace",
		Category:    types.CategoryDirectory,
		Capabilities: []string{
			"list", "walk", "glob", "tree", "recent", "find",
		},
		Tools: []types.Tool{
			{
				ID:          "directory.list",
				Name:        "List Directory",
				Description: "List immediate directory contents",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Directory path (default root)", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "directory.walk",
				Name:        "Walk Directory",
				Description: "Recursively walk a directory up to max_depth",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Directory path (default root)", Required: false},
					{Name: "max_depth", Type: "number", Description: "Depth limit (0 = unlimited)", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "directory.glob",
				Name:        "Glob Search",
				Description: "Match files with a glob pattern (supports **)",
				Parameters: []types.Parameter{
					{Name: "pattern", Type: "string", Description: "Glob pattern", Required: true},
				},
				Returns: "array",
			},
			{
				ID:          "directory.tree",
				Name:        "Directory Tree",
				Description: "Nested tree view of a directory",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Directory path (default root)", Required: false},
					{Name: "max_depth", Type: "number", Description: "Depth limit (default 3)", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "directory.recent",
				Name:        "Recent Files",
				Description: "Files modified within a time window, newest first",
				Parameters: []types.Parameter{
					{Name: "hours", Type: "number", Description: "Window in hours (default 24)", Required: false},
					{Name: "limit", Type: "number", Description: "Max results", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "directory.find",
				Name:        "Find by Name",
				Description: "Find files whose name contains a substring",
				Parameters: []types.Parameter{
					{Name: "name", Type: "string", Description: "Name fragment", Required: true},
					{Name: "limit", Type: "number", Description: "Max results", Required: false},
				},
				Returns: "array",
			},
		},
	}
}

// Execute dispatches a tool call
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "directory.list":
		return p.list(params)
	case "directory.walk":
		return p.walk(params)
	case "directory.glob":
		return p.glob(params)
	case "directory.tree":
		return p.tree(params)
	case "directory.recent":
		return p.recent(params)
	case "directory.find":
		return p.find(params)
	}
	return failure(fmt.Sprintf("unknown tool: %s", toolID))
}

func (p *Provider) gate(path string) (string, *types.Result) {
	if path == "" {
		return p.guard.Root(), nil
	}
	if !filepath.IsAbs(path) {
		// Concatenate rather than Join: Join would fold ".." lexically
		// before the boundary check sees any symlink in the way.
		path = p.guard.Root() + string(filepath.Separator) + path
	}
	decision := p.guard.Validate(path, sandbox.OpRead)
	if !decision.Allowed {
		if p.metrics != nil {
			p.metrics.RecordSandboxRejection(string(decision.Code))
		}
		return "", failureResult(decision.Reason)
	}
	return path, nil
}

func (p *Provider) list(params map[string]interface{}) (*types.Result, error) {
	path, _ := params["path"].(string)
	resolved, reject := p.gate(path)
	if reject != nil {
		return reject, nil
	}

	dirents, err := os.ReadDir(resolved)
	if err != nil {
		return failure(fmt.Sprintf("failed to list directory: %v", err))
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:     d.Name(),
			Path:     filepath.Join(resolved, d.Name()),
			Size:     info.Size(),
			IsDir:    d.IsDir(),
			Modified: info.ModTime(),
		})
	}
	return success(map[string]interface{}{"entries": entries, "count": len(entries)})
}

func (p *Provider) walk(params map[string]interface{}) (*types.Result, error) {
	path, _ := params["path"].(string)
	resolved, reject := p.gate(path)
	if reject != nil {
		return reject, nil
	}
	maxDepth := intParam(params, "max_depth", 0)

	var mu sync.Mutex
	var entries []Entry

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, resolved, func(walked string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if walked == resolved {
			return nil
		}
		rel, relErr := filepath.Rel(resolved, walked)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator)) + 1
		if maxDepth > 0 && depth > maxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		mu.Lock()
		entries = append(entries, Entry{
			Name:     d.Name(),
			Path:     walked,
			Size:     info.Size(),
			IsDir:    d.IsDir(),
			Modified: info.ModTime(),
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return failure(fmt.Sprintf("walk failed: %v", err))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return success(map[string]interface{}{"entries": entries, "count": len(entries)})
}

func (p *Provider) glob(params map[string]interface{}) (*types.Result, error) {
	pattern, ok := params["pattern"].(string)
	if !ok || pattern == "" {
		return failure("pattern parameter required")
	}

	root := p.guard.Root()
	var matches []string
	err := doublestar.GlobWalk(os.DirFS(root), pattern, func(path string, d fs.DirEntry) error {
		matches = append(matches, filepath.Join(root, path))
		return nil
	})
	if err != nil {
		return failure(fmt.Sprintf("invalid pattern: %v", err))
	}

	sort.Strings(matches)
	return success(map[string]interface{}{"matches": matches, "count": len(matches)})
}

func (p *Provider) tree(params map[string]interface{}) (*types.Result, error) {
	path, _ := params["path"].(string)
	resolved, reject := p.gate(path)
	if reject != nil {
		return reject, nil
	}
	maxDepth := intParam(params, "max_depth", 3)

	root, err := buildTree(resolved, maxDepth)
	if err != nil {
		return failure(fmt.Sprintf("failed to build tree: %v", err))
	}
	return success(map[string]interface{}{"tree": root})
}

func buildTree(path string, depth int) (*Node, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	node := &Node{Name: info.Name(), Path: path, IsDir: info.IsDir()}
	if !info.IsDir() || depth <= 0 {
		return node, nil
	}

	dirents, err := os.ReadDir(path)
	if err != nil {
		return node, nil
	}
	for _, d := range dirents {
		child, err := buildTree(filepath.Join(path, d.Name()), depth-1)
		if err != nil {
			continue
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func (p *Provider) recent(params map[string]interface{}) (*types.Result, error) {
	hours := intParam(params, "hours", 24)
	limit := intParam(params, "limit", defaultLimit)
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	entries, err := p.collect(func(e Entry) bool {
		return !e.IsDir && e.Modified.After(cutoff)
	})
	if err != nil {
		return failure(fmt.Sprintf("scan failed: %v", err))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Modified.After(entries[j].Modified) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return success(map[string]interface{}{"entries": entries, "count": len(entries)})
}

func (p *Provider) find(params map[string]interface{}) (*types.Result, error) {
	name, ok := params["name"].(string)
	if !ok || name == "" {
		return failure("name parameter required")
	}
	limit := intParam(params, "limit", defaultLimit)
	nameLower := strings.ToLower(name)

	entries, err := p.collect(func(e Entry) bool {
		return strings.Contains(strings.ToLower(e.Name), nameLower)
	})
	if err != nil {
		return failure(fmt.Sprintf("scan failed: %v", err))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return success(map[string]interface{}{"entries": entries, "count": len(entries)})
}

// collect walks the whole workspace applying a filter
func (p *Provider) collect(keep func(Entry) bool) ([]Entry, error) {
	root := p.guard.Root()

	var mu sync.Mutex
	var entries []Entry

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(walked string, d fs.DirEntry, err error) error {
		if err != nil || walked == root {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		e := Entry{
			Name:     d.Name(),
			Path:     walked,
			Size:     info.Size(),
			IsDir:    d.IsDir(),
			Modified: info.ModTime(),
		}
		if keep(e) {
			mu.Lock()
			entries = append(entries, e)
			mu.Unlock()
		}
		return nil
	})
	return entries, err
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
	return failureResult(message), nil
}

func failureResult(message string) *types.Result {
	msg := message
	return &types.Result{Success: false, Error: &msg}
}
