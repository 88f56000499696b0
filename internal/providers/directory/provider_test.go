package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/companion/internal/sandbox"
	"github.com/lumenlabs/companion/internal/types"
)

func newTestProvider(t *testing.T) (*Provider, string) {
	t.Helper()
	guard, err := sandbox.New(filepath.Join(t.TempDir(), "workspace"))
	require.NoError(t, err)

	root := guard.Root()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.md"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "plan.md"), []byte("plan"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "deep", "notes.txt"), []byte("n"), 0o644))

	return NewProvider(guard, nil), root
}

func exec(t *testing.T, p *Provider, toolID string, params map[string]interface{}) *types.Result {
	t.Helper()
	result, err := p.Execute(context.Background(), toolID, params, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func entryNames(t *testing.T, result *types.Result) []string {
	t.Helper()
	entries, ok := result.Data["entries"].([]Entry)
	require.True(t, ok)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func TestList(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.list", map[string]interface{}{})
	require.True(t, result.Success)
	assert.ElementsMatch(t, []string{"docs", "readme.md"}, entryNames(t, result))
}

func TestListSubdirectory(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.list", map[string]interface{}{"path": "docs"})
	require.True(t, result.Success)
	assert.ElementsMatch(t, []string{"deep", "plan.md"}, entryNames(t, result))
}

func TestListOutsideRejected(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.list", map[string]interface{}{"path": "/etc"})
	assert.False(t, result.Success)
}

func TestWalkUnlimited(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.walk", map[string]interface{}{})
	require.True(t, result.Success)
	assert.Contains(t, entryNames(t, result), "notes.txt")
}

func TestWalkMaxDepth(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.walk", map[string]interface{}{"max_depth": 1})
	require.True(t, result.Success)

	names := entryNames(t, result)
	assert.Contains(t, names, "docs")
	assert.Contains(t, names, "readme.md")
	assert.NotContains(t, names, "plan.md")
	assert.NotContains(t, names, "notes.txt")
}

func TestGlobDoubleStar(t *testing.T) {
	p, root := newTestProvider(t)

	result := exec(t, p, "directory.glob", map[string]interface{}{"pattern": "**/*.md"})
	require.True(t, result.Success)

	matches, ok := result.Data["matches"].([]string)
	require.True(t, ok)
	assert.Contains(t, matches, filepath.Join(root, "readme.md"))
	assert.Contains(t, matches, filepath.Join(root, "docs", "plan.md"))
	assert.NotContains(t, matches, filepath.Join(root, "docs", "deep", "notes.txt"))
}

func TestGlobRequiresPattern(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.glob", map[string]interface{}{})
	assert.False(t, result.Success)
}

func TestTree(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.tree", map[string]interface{}{})
	require.True(t, result.Success)

	tree, ok := result.Data["tree"].(*Node)
	require.True(t, ok)
	assert.True(t, tree.IsDir)
	require.NotEmpty(t, tree.Children)

	var docs *Node
	for _, c := range tree.Children {
		if c.Name == "docs" {
			docs = c
		}
	}
	require.NotNil(t, docs)
	assert.NotEmpty(t, docs.Children)
}

func TestRecent(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.recent", map[string]interface{}{"hours": 1})
	require.True(t, result.Success)

	names := entryNames(t, result)
	assert.Contains(t, names, "readme.md")
	assert.NotContains(t, names, "docs")
}

func TestFind(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.find", map[string]interface{}{"name": "plan"})
	require.True(t, result.Success)
	assert.Equal(t, []string{"plan.md"}, entryNames(t, result))
}

func TestFindLimit(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.find", map[string]interface{}{"name": ".md", "limit": 1})
	require.True(t, result.Success)
	assert.Len(t, entryNames(t, result), 1)
}

func TestUnknownTool(t *testing.T) {
	p, _ := newTestProvider(t)

	result := exec(t, p, "directory.fly", nil)
	assert.False(t, result.Success)
}
