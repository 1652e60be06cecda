// Package metrics exports Prometheus metrics for tool calls, the cache,
// and backend round-trips.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the gateway.
type Metrics struct {
	ToolCallsTotal   *prometheus.CounterVec   // labels: tool, outcome
	CacheEventsTotal *prometheus.CounterVec   // labels: event (hit|miss)
	BackendDuration  *prometheus.HistogramVec // labels: operation
}

// New creates gateway metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ToolCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdsgate",
			Name:      "tool_calls_total",
			Help:      "Total tool calls by tool name and outcome",
		}, []string{"tool", "outcome"}),
		CacheEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdsgate",
			Name:      "cache_events_total",
			Help:      "Cache lookups by result",
		}, []string{"event"}),
		BackendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sdsgate",
			Name:      "backend_request_seconds",
			Help:      "Backend round-trip duration by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// RecordToolCall records a finished tool call.
func (m *Metrics) RecordToolCall(tool, outcome string) {
	m.ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.CacheEventsTotal.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.CacheEventsTotal.WithLabelValues("miss").Inc()
}

// RecordBackendRequest records one backend round-trip.
func (m *Metrics) RecordBackendRequest(operation string, duration time.Duration) {
	m.BackendDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
