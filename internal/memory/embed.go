package memory

import (
	"context"
	"fmt"

	"github.com/lumenlabs/companion/internal/config"
	"github.com/lumenlabs/companion/internal/httpx"
	"github.com/lumenlabs/companion/internal/monitoring"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// HTTPEmbedder calls an external embedding service.
type HTTPEmbedder struct {
	client  *httpx.Client
	url     string
	model   string
	metrics *monitoring.Metrics
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewHTTPEmbedder creates an embedder against the configured service.
// Returns nil when no URL is configured; the store then uses text search.
func NewHTTPEmbedder(cfg config.EmbeddingsConfig, metrics *monitoring.Metrics) *HTTPEmbedder {
	if cfg.URL == "" {
		return nil
	}
	client := httpx.New()
	client.SetTimeout(cfg.Timeout)
	return &HTTPEmbedder{
		client:  client,
		url:     cfg.URL,
		model:   cfg.Model,
		metrics: metrics,
	}
}

// Embed requests a vector for text, going through the circuit breaker.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	var result embedResponse

	err := e.client.Breaker.Do(func() error {
		resp, err := e.client.Resty.R().
			SetContext(ctx).
			SetBody(embedRequest{Model: e.model, Input: text}).
			SetResult(&result).
			Post(e.url)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("embedding service returned %d", resp.StatusCode())
		}
		return nil
	})

	if e.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		e.metrics.EmbedCalls.WithLabelValues(status).Inc()
	}
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned empty vector")
	}
	return result.Embedding, nil
}
