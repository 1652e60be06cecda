// Package gateway assembles the tool gateway: the MCP endpoint, the
// cache store, the backend forwarder, and the operational endpoints.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/sdsgate/internal/backend"
	"github.com/example/sdsgate/internal/cache"
	"github.com/example/sdsgate/internal/config"
	"github.com/example/sdsgate/internal/logging"
	"github.com/example/sdsgate/internal/mcp"
	"github.com/example/sdsgate/internal/metrics"
	"github.com/example/sdsgate/internal/middleware"
	"github.com/example/sdsgate/internal/tools"
)

const serverName = "SDS Manager Search"

const instructions = "SDS Manager tool gateway. Call search with your " +
	"access token and a query to find Safety Data Sheets; call fetch " +
	"with a document id to retrieve one record."

// Server hosts the MCP endpoint and the operational endpoints.
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	registry   *mcp.Registry
	redisStore *cache.RedisStore // nil when Redis is disabled
	startTime  time.Time
}

// NewServer wires the gateway from configuration. reg receives the
// Prometheus collectors and backs the /metrics endpoint.
func NewServer(cfg *config.Config, version string, reg *prometheus.Registry) *Server {
	s := &Server{
		cfg:       cfg,
		startTime: time.Now(),
	}

	var store cache.Store
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		s.redisStore = cache.NewRedisStore(client, cfg.Cache.KeyPrefix)
		store = s.redisStore
	} else {
		store = cache.NewMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	m := metrics.New(reg)
	svc := tools.NewService(store, backend.NewClient(cfg.Backend), cfg.Cache.TTL, m)

	s.registry = mcp.NewRegistry(serverName, version, instructions)
	svc.Register(s.registry)

	router := httprouter.New()
	router.Handler(http.MethodPost, "/mcp", s.registry)
	router.HandlerFunc(http.MethodGet, "/", s.handleRoot)
	router.HandlerFunc(http.MethodGet, "/healthz", s.handleHealth)
	router.HandlerFunc(http.MethodGet, "/readyz", s.handleReady)
	router.Handler(http.MethodGet, "/metrics",
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.AccessLog("/healthz", "/readyz", "/metrics"),
	)

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           chain.Then(router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the fully wired HTTP handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving in a goroutine and returns once the listener is
// accepting or has failed.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info("Listening", zap.String("addr", s.cfg.Listen))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		// Give the listener a moment to start
	}
	return nil
}

// Run starts the server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down gracefully...")
	return s.Shutdown(s.cfg.Shutdown.Timeout)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown error", zap.Error(err))
		return err
	}

	logging.Info("Server shutdown complete")
	return nil
}

// handleRoot serves a small service banner.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "SDS Manager tool gateway",
		"mcp":     "/mcp",
	})
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

// handleReady is the readiness probe. A down cache store degrades the
// report but never fails it: tool calls work without the cache.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	cacheStatus := "disabled"
	if s.redisStore != nil {
		cacheStatus = "ok"
		if err := s.redisStore.Ping(r.Context()); err != nil {
			cacheStatus = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cache":  cacheStatus,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
