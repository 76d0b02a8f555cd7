package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/ecomdata/internal/dataset"
	"example.com/ecomdata/internal/query"
	"example.com/ecomdata/internal/store"
)

// Server exposes the loaded store read-only over HTTP.
type Server struct {
	store    *store.Store
	catalog  *query.Catalog
	gatherer prometheus.Gatherer
	observe  func(name string, d time.Duration)
	logger   *zap.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithQueryObserver reports the latency of every executed query.
func WithQueryObserver(fn func(name string, d time.Duration)) Option {
	return func(s *Server) { s.observe = fn }
}

func NewServer(st *store.Store, catalog *query.Catalog, gatherer prometheus.Gatherer, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		store:    st,
		catalog:  catalog,
		gatherer: gatherer,
		observe:  func(string, time.Duration) {},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router wires all routes under a single chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/tables", s.handleTables)
	r.Route("/queries", func(r chi.Router) {
		r.Get("/", s.handleListQueries)
		r.Get("/{name}", s.handleRunQuery)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.DB().PingContext(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Counts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count tables: %v", err)
		return
	}
	resp := make([]map[string]any, 0, len(dataset.Entities))
	for _, table := range dataset.Entities {
		resp = append(resp, map[string]any{"table": table, "rows": counts[table]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": resp})
}

func (s *Server) handleListQueries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"queries": s.catalog.Names()})
}

func (s *Server) handleRunQuery(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	q, err := s.catalog.Load(name)
	if err != nil {
		handleNotFound(w, err)
		return
	}

	start := time.Now()
	res, err := query.Run(r.Context(), s.store.DB(), q.SQL)
	s.observe(name, time.Since(start))
	if err != nil {
		s.logger.Error("query failed", zap.String("query", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "run %s: %v", name, err)
		return
	}
	if res.Empty() {
		s.logger.Warn("query returned no rows", zap.String("query", name))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   name,
		"columns": res.Columns,
		"rows":    res.Rows,
		"count":   len(res.Rows),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": strings.TrimSpace(fmt.Sprintf(format, args...)),
			"status":  status,
		},
	})
}

func handleNotFound(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, query.ErrUnknownQuery), errors.Is(err, query.ErrQueryMissing), errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "%s", err)
	default:
		writeError(w, http.StatusInternalServerError, "%s", err)
	}
}
