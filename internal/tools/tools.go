// Package tools wires the two exposed tools to the cache and the
// backend forwarder. Per call: derive the fingerprint, try the cache,
// fall through to the backend on a miss, store the result with the
// configured TTL, and hand the backend's JSON back untouched.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/example/sdsgate/internal/backend"
	"github.com/example/sdsgate/internal/cache"
	"github.com/example/sdsgate/internal/errors"
	"github.com/example/sdsgate/internal/logging"
	"github.com/example/sdsgate/internal/mcp"
	"github.com/example/sdsgate/internal/metrics"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// Service implements the search and fetch tool handlers.
type Service struct {
	store   cache.Store
	client  *backend.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewService creates the tool service. store may be backed by Redis or
// memory; it is an optimization only and never fails a call.
func NewService(store cache.Store, client *backend.Client, ttl time.Duration, m *metrics.Metrics) *Service {
	return &Service{store: store, client: client, ttl: ttl, metrics: m}
}

// Register adds the search and fetch tools to the registry.
func (s *Service) Register(reg *mcp.Registry) {
	reg.Register(mcp.Tool{
		Name:        "search",
		Description: "Search Safety Data Sheets (SDS) by product name or keywords. Returns a page of matching documents; call again with a different page number to load more results.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"access_token": map[string]any{
					"type":        "string",
					"description": "Access token for the SDS Manager backend",
				},
				"query": map[string]any{
					"type":        "string",
					"description": "Search query (product name, manufacturer, CAS number, ...)",
				},
				"page": map[string]any{
					"type":        "integer",
					"description": "Result page, starting at 1",
					"default":     defaultPage,
				},
				"page_size": map[string]any{
					"type":        "integer",
					"description": "Results per page",
					"default":     defaultPageSize,
				},
			},
			"required": []string{"access_token", "query"},
		},
	}, s.Search)

	reg.Register(mcp.Tool{
		Name:        "fetch",
		Description: "Retrieve the full record of one SDS document by its id.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"access_token": map[string]any{
					"type":        "string",
					"description": "Access token for the SDS Manager backend",
				},
				"id": map[string]any{
					"type":        "string",
					"description": "Unique identifier of the SDS document",
				},
			},
			"required": []string{"access_token", "id"},
		},
	}, s.Fetch)
}

// Search handles the search tool.
func (s *Service) Search(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	token, err := stringArg(args, "access_token")
	if err != nil {
		return nil, err
	}
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}
	page := intArg(args, "page", defaultPage)
	pageSize := intArg(args, "page_size", defaultPageSize)

	key := cache.Fingerprint("search", token, query, strconv.Itoa(page), strconv.Itoa(pageSize))
	if payload, ok := s.store.Get(ctx, key); ok {
		s.metrics.RecordCacheHit()
		s.metrics.RecordToolCall("search", "success")
		logging.Debug("Search served from cache",
			zap.String("query", query),
			zap.String("token_digest", tokenDigest(token)),
		)
		return payload, nil
	}
	s.metrics.RecordCacheMiss()

	start := time.Now()
	payload, err := s.client.Search(ctx, token, query, page, pageSize)
	s.metrics.RecordBackendRequest("search", time.Since(start))
	if err != nil {
		s.metrics.RecordToolCall("search", outcome(err))
		return nil, err
	}

	s.store.Set(ctx, key, payload, s.ttl)
	s.metrics.RecordToolCall("search", "success")
	logging.Info("Search forwarded to backend",
		zap.String("query", query),
		zap.Int("page", page),
		zap.Int64("count", gjson.GetBytes(payload, "count").Int()),
		zap.String("token_digest", tokenDigest(token)),
	)
	return payload, nil
}

// Fetch handles the fetch tool.
func (s *Service) Fetch(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	token, err := stringArg(args, "access_token")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}

	key := cache.Fingerprint("fetch", token, id)
	if payload, ok := s.store.Get(ctx, key); ok {
		s.metrics.RecordCacheHit()
		s.metrics.RecordToolCall("fetch", "success")
		logging.Debug("Fetch served from cache",
			zap.String("id", id),
			zap.String("token_digest", tokenDigest(token)),
		)
		return payload, nil
	}
	s.metrics.RecordCacheMiss()

	start := time.Now()
	payload, err := s.client.Fetch(ctx, token, id)
	s.metrics.RecordBackendRequest("fetch", time.Since(start))
	if err != nil {
		s.metrics.RecordToolCall("fetch", outcome(err))
		return nil, err
	}

	s.store.Set(ctx, key, payload, s.ttl)
	s.metrics.RecordToolCall("fetch", "success")
	logging.Info("Fetch forwarded to backend",
		zap.String("id", id),
		zap.String("token_digest", tokenDigest(token)),
	)
	return payload, nil
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// intArg reads an integer argument. JSON numbers decode as float64;
// non-integral values fall back to the default rather than truncating.
func intArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		if v >= 1 && v == math.Trunc(v) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			return n
		}
	}
	return def
}

func outcome(err error) string {
	if _, ok := errors.AsBackendError(err); ok {
		return "backend_error"
	}
	if _, ok := errors.AsTransportError(err); ok {
		return "transport_error"
	}
	return "error"
}

// tokenDigest returns a short stable digest of the token for log
// correlation. The raw token never reaches the logs.
func tokenDigest(token string) string {
	return strconv.FormatUint(xxhash.Sum64String(token), 16)
}
