// Package resilience provides a circuit breaker for calls to external
// services. The embedding client wraps every request in a Breaker so a
// down embedding service degrades memory search instead of stalling every
// request on connect timeouts.
package resilience
