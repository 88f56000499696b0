// Package reflection distills recent memory into short summary notes.
package reflection

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumenlabs/companion/internal/logging"
	"github.com/lumenlabs/companion/internal/memory"
	"github.com/lumenlabs/companion/internal/monitoring"
	"github.com/lumenlabs/companion/internal/shared/id"
)

// ReflectionTag marks memory entries produced by reflection.
const ReflectionTag = "reflection"

const (
	defaultWindow  = 24 * time.Hour
	defaultSources = 50
	topicLimit     = 5
)

// Note is a generated reflection.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Sources   int       `json:"sources"`
	Topics    []string  `json:"topics,omitempty"`
}

// Service generates reflections from recent memory.
type Service struct {
	mem     *memory.Store
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu   sync.RWMutex
	last *Note
}

// NewService creates a reflection service over the given memory store.
func NewService(mem *memory.Store, log *logging.Logger, metrics *monitoring.Metrics) *Service {
	return &Service{mem: mem, log: log, metrics: metrics}
}

// Run generates a reflection from recent entries and stores it back
// into memory tagged as a reflection. Entries that are themselves
// reflections are skipped so notes never feed on notes.
func (s *Service) Run(ctx context.Context) error {
	recent := s.mem.Recent(defaultWindow, defaultSources)

	sources := make([]memory.Entry, 0, len(recent))
	for _, e := range recent {
		if isReflection(e) {
			continue
		}
		sources = append(sources, e)
	}

	if len(sources) == 0 {
		s.log.Debug("reflection skipped: nothing new to reflect on")
		return nil
	}

	topics := topTopics(sources, topicLimit)
	note := &Note{
		ID:        id.NewReflectionID(),
		Text:      composeText(sources, topics),
		CreatedAt: time.Now().UTC(),
		Sources:   len(sources),
		Topics:    topics,
	}

	if _, err := s.mem.Add(ctx, note.Text, []string{ReflectionTag}); err != nil {
		return fmt.Errorf("failed to store reflection: %w", err)
	}

	s.mu.Lock()
	s.last = note
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ReflectionsRun.Inc()
	}
	s.log.Info("reflection generated",
		zap.String("reflection_id", note.ID),
		zap.Int("sources", note.Sources),
		zap.Strings("topics", topics),
	)
	return nil
}

// Last returns the most recent reflection, if any.
func (s *Service) Last() (*Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false
	}
	clone := *s.last
	return &clone, true
}

func isReflection(e memory.Entry) bool {
	for _, tag := range e.Tags {
		if tag == ReflectionTag {
			return true
		}
	}
	return false
}

func composeText(sources []memory.Entry, topics []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reflected on %d recent memories.", len(sources))
	if len(topics) > 0 {
		fmt.Fprintf(&b, " Recurring topics: %s.", strings.Join(topics, ", "))
	}
	fmt.Fprintf(&b, " Most recent: %q.", truncate(sources[0].Text, 120))
	return b.String()
}

// topTopics counts word and tag frequency across entries and returns
// the most recurring ones.
func topTopics(entries []memory.Entry, limit int) []string {
	counts := make(map[string]int)
	for _, e := range entries {
		for _, word := range strings.Fields(strings.ToLower(e.Text)) {
			word = strings.Trim(word, ".,!?:;\"'()")
			if len(word) < 4 || stopwords[word] {
				continue
			}
			counts[word]++
		}
		for _, tag := range e.Tags {
			counts[strings.ToLower(tag)] += 2
		}
	}

	type freq struct {
		word  string
		count int
	}
	ranked := make([]freq, 0, len(counts))
	for w, c := range counts {
		if c > 1 {
			ranked = append(ranked, freq{w, c})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	topics := make([]string, 0, limit)
	for i := 0; i < len(ranked) && i < limit; i++ {
		topics = append(topics, ranked[i].word)
	}
	return topics
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var stopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"will": true, "been": true, "were": true, "they": true,
	"them": true, "then": true, "than": true, "what": true, "when": true,
	"where": true, "about": true, "just": true, "some": true, "into": true,
	"over": true, "more": true, "very": true, "your": true, "their": true,
}
