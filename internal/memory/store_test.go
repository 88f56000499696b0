package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/companion/internal/logging"
)

type stubEmbedder struct {
	vectors map[string][]float64
	fail    bool
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if s.fail {
		return nil, fmt.Errorf("embedder unavailable")
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float64{0, 0, 1}, nil
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.json")
	s, err := NewStore(path, logging.NewDevelopment(), opts...)
	require.NoError(t, err)
	return s
}

func TestAddRollsBackWhenSaveFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	s, err := NewStore(path, logging.NewDevelopment())
	require.NoError(t, err)

	// A directory squatting on the temp file makes the snapshot write fail.
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	_, err = s.Add(context.Background(), "never persisted", nil)
	require.Error(t, err)
	assert.Zero(t, s.Count())
	assert.Empty(t, s.List(0))
}

func TestAddAndGet(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.Add(context.Background(), "walked the dog this morning", []string{"routine"})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)

	got, ok := s.Get(entry.ID)
	require.True(t, ok)
	assert.Equal(t, "walked the dog this morning", got.Text)
	assert.Equal(t, []string{"routine"}, got.Tags)
}

func TestAddRejectsEmptyText(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add(context.Background(), "   ", nil)
	assert.Error(t, err)
}

func TestAddToleratesEmbedderFailure(t *testing.T) {
	s := newTestStore(t, WithEmbedder(&stubEmbedder{fail: true}))

	entry, err := s.Add(context.Background(), "remember to water plants", nil)
	require.NoError(t, err)
	assert.Empty(t, entry.Embedding)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.Add(context.Background(), "temporary note", nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(entry.ID))
	_, ok := s.Get(entry.ID)
	assert.False(t, ok)

	assert.Error(t, s.Delete(entry.ID))
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Add(context.Background(), "first", nil)
	require.NoError(t, err)
	second, err := s.Add(context.Background(), "second", nil)
	require.NoError(t, err)

	all := s.List(0)
	require.Len(t, all, 2)
	assert.Equal(t, []string{first.ID, second.ID}, []string{all[1].ID, all[0].ID})

	limited := s.List(1)
	assert.Len(t, limited, 1)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	log := logging.NewDevelopment()

	s, err := NewStore(path, log)
	require.NoError(t, err)
	entry, err := s.Add(context.Background(), "persisted fact", []string{"keep"})
	require.NoError(t, err)

	reopened, err := NewStore(path, log)
	require.NoError(t, err)
	got, ok := reopened.Get(entry.ID)
	require.True(t, ok)
	assert.Equal(t, "persisted fact", got.Text)
	assert.Equal(t, 1, reopened.Count())
}

func TestSearchTextFallback(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add(context.Background(), "bought groceries at the market", []string{"errand"})
	require.NoError(t, err)
	_, err = s.Add(context.Background(), "finished reading a novel", nil)
	require.NoError(t, err)

	results := s.Search(context.Background(), "groceries", 5, 0)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Entry.Text, "groceries")
}

func TestSearchCosineRanking(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float64{
		"dogs are great":  {1, 0, 0},
		"tax season soon": {0, 1, 0},
		"tell me about dogs": {0.9, 0.1, 0},
	}}
	s := newTestStore(t, WithEmbedder(emb))

	_, err := s.Add(context.Background(), "dogs are great", nil)
	require.NoError(t, err)
	_, err = s.Add(context.Background(), "tax season soon", nil)
	require.NoError(t, err)

	results := s.Search(context.Background(), "tell me about dogs", 5, 0)
	require.NotEmpty(t, results)
	assert.Equal(t, "dogs are great", results[0].Entry.Text)
}

func TestSearchLimit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		_, err := s.Add(context.Background(), fmt.Sprintf("note number %d", i), nil)
		require.NoError(t, err)
	}

	results := s.Search(context.Background(), "note", 2, 0)
	assert.Len(t, results, 2)
}

func TestSearchMinScore(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float64{
		"dogs are great":  {1, 0, 0},
		"tax season soon": {0, 1, 0},
		"dogs":            {1, 0, 0},
	}}
	s := newTestStore(t, WithEmbedder(emb))

	_, err := s.Add(context.Background(), "dogs are great", nil)
	require.NoError(t, err)
	_, err = s.Add(context.Background(), "tax season soon", nil)
	require.NoError(t, err)

	results := s.Search(context.Background(), "dogs", 5, 0.9)
	require.Len(t, results, 1)
	assert.Equal(t, "dogs are great", results[0].Entry.Text)
}
