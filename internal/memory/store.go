package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/lumenlabs/companion/internal/logging"
	"github.com/lumenlabs/companion/internal/monitoring"
	"github.com/lumenlabs/companion/internal/shared/id"
)

// Entry is a single memory record.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Embedding []float64 `json:"embedding,omitempty"`
}

// SearchResult pairs an entry with its relevance score.
type SearchResult struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score"`
}

// Store is an embedded semantic memory backed by a JSON file.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	path     string
	embedder Embedder
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithEmbedder attaches an embedding backend for semantic search.
func WithEmbedder(e Embedder) Option {
	return func(s *Store) { s.embedder = e }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore opens (or creates) a memory store persisted at path.
func NewStore(path string, log *logging.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		entries: make(map[string]*Entry),
		path:    path,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	s.updateGauge()
	return s, nil
}

// Add stores a new memory entry. Embedding failures are tolerated:
// the entry is kept and falls back to text search.
func (s *Store) Add(ctx context.Context, text string, tags []string) (*Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("memory text cannot be empty")
	}

	entry := &Entry{
		ID:        id.NewMemoryID(),
		Text:      text,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}

	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			s.log.Warn("embedding failed, storing without vector",
				zap.String("memory_id", entry.ID), zap.Error(err))
		} else {
			entry.Embedding = vec
		}
	}

	s.mu.Lock()
	s.entries[entry.ID] = entry
	err := s.save()
	if err != nil {
		delete(s.entries, entry.ID)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.updateGauge()
	s.log.Info("memory stored", zap.String("memory_id", entry.ID), zap.Strings("tags", tags))
	return entry, nil
}

// Get retrieves an entry by ID.
func (s *Store) Get(entryID string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, false
	}
	clone := *e
	return &clone, true
}

// List returns entries newest first, up to limit (0 means all).
func (s *Store) List(limit int) []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Recent returns entries created within the given window, newest first.
func (s *Store) Recent(window time.Duration, limit int) []Entry {
	cutoff := time.Now().Add(-window)
	all := s.List(0)
	out := make([]Entry, 0, limit)
	for _, e := range all {
		if e.CreatedAt.Before(cutoff) {
			break
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Delete removes an entry by ID.
func (s *Store) Delete(entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entryID]; !ok {
		return fmt.Errorf("memory not found: %s", entryID)
	}
	delete(s.entries, entryID)
	if err := s.save(); err != nil {
		return err
	}
	s.gaugeLocked()
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) updateGauge() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.gaugeLocked()
}

func (s *Store) gaugeLocked() {
	if s.metrics != nil {
		s.metrics.MemoryEntries.Set(float64(len(s.entries)))
	}
}

type snapshot struct {
	Entries []Entry `json:"entries"`
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read memory file: %w", err)
	}

	var snap snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse memory file: %w", err)
	}
	for i := range snap.Entries {
		e := snap.Entries[i]
		s.entries[e.ID] = &e
	}
	return nil
}

// save writes the store to disk atomically. Callers hold s.mu.
func (s *Store) save() error {
	snap := snapshot{Entries: make([]Entry, 0, len(s.entries))}
	for _, e := range s.entries {
		snap.Entries = append(snap.Entries, *e)
	}
	sort.Slice(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].CreatedAt.Before(snap.Entries[j].CreatedAt)
	})

	data, err := sonic.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("failed to encode memory file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create memory dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
