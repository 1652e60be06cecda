package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordToolCall(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordToolCall("search", "success")
	m.RecordToolCall("search", "success")
	m.RecordToolCall("fetch", "backend_error")

	if got := testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("search", "success")); got != 2 {
		t.Errorf("search success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("fetch", "backend_error")); got != 1 {
		t.Errorf("fetch backend_error count = %v, want 1", got)
	}
}

func TestRecordCacheEvents(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordCacheMiss()

	if got := testutil.ToFloat64(m.CacheEventsTotal.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheEventsTotal.WithLabelValues("miss")); got != 2 {
		t.Errorf("miss count = %v, want 2", got)
	}
}

func TestRecordBackendRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordBackendRequest("search", 120*time.Millisecond)

	if got := testutil.CollectAndCount(m.BackendDuration); got == 0 {
		t.Error("backend duration histogram recorded nothing")
	}
}
