package memory

import (
	"context"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Search ranks entries against the query. When an embedder is available
// and the query can be embedded, entries with vectors are scored by
// cosine similarity; everything else falls back to text matching.
// Results scoring below minScore are dropped.
func (s *Store) Search(ctx context.Context, query string, limit int, minScore float64) []SearchResult {
	if limit <= 0 {
		limit = 10
	}
	if s.metrics != nil {
		s.metrics.MemorySearches.Inc()
	}

	var queryVec []float64
	if s.embedder != nil {
		if vec, err := s.embedder.Embed(ctx, query); err == nil {
			queryVec = vec
		}
	}

	s.mu.RLock()
	results := make([]SearchResult, 0, len(s.entries))
	for _, e := range s.entries {
		score := scoreEntry(e, query, queryVec)
		if score > 0 && score >= minScore {
			results = append(results, SearchResult{Entry: *e, Score: score})
		}
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func scoreEntry(e *Entry, query string, queryVec []float64) float64 {
	if queryVec != nil && len(e.Embedding) == len(queryVec) && len(queryVec) > 0 {
		return cosine(queryVec, e.Embedding)
	}
	return textScore(e, query)
}

// cosine returns similarity in [0, 1], clamping negative values.
func cosine(a, b []float64) float64 {
	dot := floats.Dot(a, b)
	na := math.Sqrt(floats.Dot(a, a))
	nb := math.Sqrt(floats.Dot(b, b))
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (na * nb)
	if sim < 0 {
		return 0
	}
	return sim
}

func textScore(e *Entry, query string) float64 {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower == "" {
		return 0
	}
	textLower := strings.ToLower(e.Text)

	score := 0.0
	if strings.Contains(textLower, queryLower) {
		score += 1.0
	}
	for _, word := range strings.Fields(queryLower) {
		if strings.Contains(textLower, word) {
			score += 0.2
		}
		for _, tag := range e.Tags {
			if strings.EqualFold(tag, word) {
				score += 0.5
			}
		}
	}
	return score
}
