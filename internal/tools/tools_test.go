package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/sdsgate/internal/backend"
	"github.com/example/sdsgate/internal/cache"
	"github.com/example/sdsgate/internal/config"
	"github.com/example/sdsgate/internal/errors"
	"github.com/example/sdsgate/internal/metrics"
)

// alwaysMissStore behaves like an unreachable cache backing store.
type alwaysMissStore struct{}

func (alwaysMissStore) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (alwaysMissStore) Set(context.Context, string, []byte, time.Duration) {}
func (alwaysMissStore) Delete(context.Context, string)                     {}

func newBackendStub(t *testing.T, calls *atomic.Int64, handler http.HandlerFunc) *backend.Client {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)
	return backend.NewClient(config.BackendConfig{
		BaseURL:    ts.URL + "/api",
		AuthHeader: "Authorization",
		Timeout:    2 * time.Second,
	})
}

func newService(client *backend.Client, store cache.Store) *Service {
	return NewService(store, client, time.Minute, metrics.New(prometheus.NewRegistry()))
}

func TestSearchSecondCallServedFromCache(t *testing.T) {
	var calls atomic.Int64
	client := newBackendStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"id":1}],"count":1}`))
	})
	svc := newService(client, cache.NewMemoryStore(100, time.Minute))

	args := map[string]any{"access_token": "T1", "query": "acetone"}
	first, err := svc.Search(context.Background(), args)
	if err != nil {
		t.Fatalf("first Search() error: %v", err)
	}
	second, err := svc.Search(context.Background(), args)
	if err != nil {
		t.Fatalf("second Search() error: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("backend called %d times, want exactly 1", calls.Load())
	}
	if string(first) != string(second) {
		t.Errorf("cached payload differs: %q vs %q", first, second)
	}
}

func TestDifferentTokensNeverShareCacheEntries(t *testing.T) {
	var calls atomic.Int64
	client := newBackendStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		// Answer depends on the caller's token.
		w.Write([]byte(`{"token":"` + r.Header.Get("Authorization") + `"}`))
	})
	svc := newService(client, cache.NewMemoryStore(100, time.Minute))

	r1, err := svc.Fetch(context.Background(), map[string]any{"access_token": "T1", "id": "12345"})
	if err != nil {
		t.Fatalf("Fetch(T1) error: %v", err)
	}
	r2, err := svc.Fetch(context.Background(), map[string]any{"access_token": "T2", "id": "12345"})
	if err != nil {
		t.Fatalf("Fetch(T2) error: %v", err)
	}

	if calls.Load() != 2 {
		t.Errorf("backend called %d times, want 2 (one per token)", calls.Load())
	}
	if string(r1) == string(r2) {
		t.Error("T2 must not receive T1's cached payload")
	}
}

func TestPaginationIsPartOfTheFingerprint(t *testing.T) {
	var calls atomic.Int64
	client := newBackendStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[],"count":0}`))
	})
	svc := newService(client, cache.NewMemoryStore(100, time.Minute))

	base := map[string]any{"access_token": "T1", "query": "acetone"}
	svc.Search(context.Background(), base)
	svc.Search(context.Background(), map[string]any{"access_token": "T1", "query": "acetone", "page": float64(2)})
	svc.Search(context.Background(), map[string]any{"access_token": "T1", "query": "acetone", "page_size": float64(25)})

	if calls.Load() != 3 {
		t.Errorf("backend called %d times, want 3 (distinct pages are distinct entries)", calls.Load())
	}
}

func TestUnavailableCacheFallsThroughToBackend(t *testing.T) {
	var calls atomic.Int64
	client := newBackendStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"12345","name":"Acetone SDS"}`))
	})
	svc := newService(client, alwaysMissStore{})

	args := map[string]any{"access_token": "T1", "id": "12345"}
	for i := 0; i < 3; i++ {
		payload, err := svc.Fetch(context.Background(), args)
		if err != nil {
			t.Fatalf("Fetch() error on call %d: %v", i, err)
		}
		if string(payload) != `{"id":"12345","name":"Acetone SDS"}` {
			t.Errorf("payload = %q", payload)
		}
	}

	if calls.Load() != 3 {
		t.Errorf("backend called %d times, want 3 (every call falls through)", calls.Load())
	}
}

func TestExpiredEntriesAreMisses(t *testing.T) {
	var calls atomic.Int64
	client := newBackendStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[],"count":0}`))
	})
	svc := newService(client, cache.NewMemoryStore(100, 50*time.Millisecond))

	args := map[string]any{"access_token": "T1", "query": "acetone"}
	svc.Search(context.Background(), args)
	time.Sleep(80 * time.Millisecond)
	svc.Search(context.Background(), args)

	if calls.Load() != 2 {
		t.Errorf("backend called %d times, want 2 (entry expired)", calls.Load())
	}
}

func TestBackendErrorsAreNotCached(t *testing.T) {
	var calls atomic.Int64
	client := newBackendStub(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid token"}`))
	})
	svc := newService(client, cache.NewMemoryStore(100, time.Minute))

	args := map[string]any{"access_token": "bad", "query": "acetone"}
	_, err := svc.Search(context.Background(), args)
	be, ok := errors.AsBackendError(err)
	if !ok {
		t.Fatalf("error is %T, want BackendError", err)
	}
	if be.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", be.Status)
	}

	svc.Search(context.Background(), args)
	if calls.Load() != 2 {
		t.Errorf("backend called %d times, want 2 (failures must not populate the cache)", calls.Load())
	}
}

func TestMissingArguments(t *testing.T) {
	svc := newService(nil, cache.NewMemoryStore(10, time.Minute))

	tests := []struct {
		name string
		call func() error
	}{
		{"search without token", func() error {
			_, err := svc.Search(context.Background(), map[string]any{"query": "x"})
			return err
		}},
		{"search without query", func() error {
			_, err := svc.Search(context.Background(), map[string]any{"access_token": "T1"})
			return err
		}},
		{"fetch without id", func() error {
			_, err := svc.Fetch(context.Background(), map[string]any{"access_token": "T1"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.call() == nil {
				t.Error("call succeeded, want argument error")
			}
		})
	}
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want int
	}{
		{"absent uses default", map[string]any{}, 1},
		{"json number", map[string]any{"page": float64(3)}, 3},
		{"string number", map[string]any{"page": "4"}, 4},
		{"zero uses default", map[string]any{"page": float64(0)}, 1},
		{"fractional uses default", map[string]any{"page": float64(2.7)}, 1},
		{"negative uses default", map[string]any{"page": float64(-2)}, 1},
		{"garbage uses default", map[string]any{"page": "abc"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intArg(tt.args, "page", 1); got != tt.want {
				t.Errorf("intArg = %d, want %d", got, tt.want)
			}
		})
	}
}
