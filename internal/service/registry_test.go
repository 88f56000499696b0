package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/companion/internal/types"
)

type mockProvider struct {
	def      types.Service
	executed string
}

func (m *mockProvider) Definition() types.Service { return m.def }

func (m *mockProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	m.executed = toolID
	return &types.Result{Success: true, Data: map[string]interface{}{"tool": toolID}}, nil
}

func newMock(id string, category types.Category) *mockProvider {
	return &mockProvider{def: types.Service{
		ID:           id,
		Name:         id,
		Description:  "test service for " + id,
		Category:     category,
		Capabilities: []string{id + "_capability"},
		Tools:        []types.Tool{{ID: id + ".run", Name: "run"}},
	}}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newMock("storage", types.CategoryFiles)))

	p, ok := r.Get("storage")
	require.True(t, ok)
	assert.Equal(t, "storage", p.Definition().ID)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegisterEmptyID(t *testing.T) {
	r := NewRegistry()
	err := r.Register(&mockProvider{})
	assert.Error(t, err)
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newMock("storage", types.CategoryFiles)))
	r.Unregister("storage")

	_, ok := r.Get("storage")
	assert.False(t, ok)
}

func TestListFiltersByCategory(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newMock("storage", types.CategoryFiles)))
	require.NoError(t, r.Register(newMock("scraper", types.CategoryScraper)))

	all := r.List(nil)
	assert.Len(t, all, 2)

	cat := types.CategoryScraper
	filtered := r.List(&cat)
	require.Len(t, filtered, 1)
	assert.Equal(t, "scraper", filtered[0].ID)
}

func TestDiscoverRanksByRelevance(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newMock("storage", types.CategoryFiles)))
	require.NoError(t, r.Register(newMock("scraper", types.CategoryScraper)))

	results := r.Discover("I need the scraper service", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "scraper", results[0].ID)
}

func TestDiscoverRespectsLimit(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newMock("storage", types.CategoryFiles)))
	require.NoError(t, r.Register(newMock("scraper", types.CategoryScraper)))

	results := r.Discover("test service", 1)
	assert.Len(t, results, 1)
}

func TestExecuteRoutesToProvider(t *testing.T) {
	r := NewRegistry()
	mock := newMock("storage", types.CategoryFiles)
	require.NoError(t, r.Register(mock))

	result, err := r.Execute(context.Background(), "storage.read", map[string]interface{}{}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "storage.read", mock.executed)
}

func TestExecuteInvalidToolID(t *testing.T) {
	r := NewRegistry()

	result, err := r.Execute(context.Background(), "noformat", nil, nil)
	assert.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
}

func TestExecuteUnknownService(t *testing.T) {
	r := NewRegistry()

	result, err := r.Execute(context.Background(), "ghost.read", nil, nil)
	assert.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
}

func TestStats(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newMock("storage", types.CategoryFiles)))
	require.NoError(t, r.Register(newMock("scraper", types.CategoryScraper)))

	stats := r.Stats()
	assert.Equal(t, 2, stats["total_services"])
	assert.Equal(t, 2, stats["total_tools"])
}
