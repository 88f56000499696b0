// Package monitoring provides Prometheus metrics for the companion backend.
//
// All metrics are registered through promauto at construction and exposed
// on /metrics. The gin middleware records per-request counters, latency
// histograms, and payload sizes; subsystems record their own counters
// through the helper methods.
package monitoring
