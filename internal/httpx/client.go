// Package httpx provides the outbound HTTP client shared by the scraper
// and embeddings integrations.
package httpx

import (
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/lumenlabs/companion/internal/resilience"
)

const userAgent = "Companion-HTTP/1.0"

// Client wraps resty with rate limiting and a circuit breaker.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	mu      sync.RWMutex
}

// New creates a production-ready HTTP client.
func New() *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(30*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(30*time.Second).
		SetHeader("User-Agent", userAgent)

	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New("http-external", resilience.Settings{
		FailureThreshold: 10,
		Cooldown:         30 * time.Second,
	})

	return &Client{
		Resty:   restyClient,
		Limiter: rate.NewLimiter(rate.Inf, 0),
		Breaker: breaker,
	}
}

// SetTimeout configures the request timeout.
func (c *Client) SetTimeout(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Resty.SetTimeout(duration)
}

// SetHeader adds a default header.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Resty.SetHeader(key, value)
}

// SetRateLimit caps outbound requests per second.
func (c *Client) SetRateLimit(rps float64, burst int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
}
