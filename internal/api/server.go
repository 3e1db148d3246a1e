// Package api exposes the HTTP interface for the policy service. There is
// one data route: GET /api/policies returns the cleaned snapshot file
// verbatim, re-read from disk on every request so a fresh cleanup run is
// visible immediately.
package api

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coretrust/policyd/internal/metrics"
)

// readErrorBody is the fixed 500 payload for the policies route. The
// front-end matches on it, so it is not derived from the underlying error.
const readErrorBody = `{"error":"Failed to read policy data"}`

// Config controls the server.
type Config struct {
	// PolicyFile is the path of the cleaned snapshot served by
	// /api/policies.
	PolicyFile string
}

// Server wires the chi router to the snapshot file.
type Server struct {
	router chi.Router
	cfg    Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(corsMiddleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/api/policies", s.getPolicies)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, `{"status":"ok"}`)
}

// readyz checks that the snapshot file is readable, so load balancers stop
// routing to an instance whose data volume is gone.
func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if _, err := os.Stat(s.cfg.PolicyFile); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, `{"status":"no policy data"}`)
		return
	}
	writeJSON(w, http.StatusOK, `{"status":"ready"}`)
}

// getPolicies streams the cleaned snapshot verbatim. The file is already
// serialized JSON; parsing it again per request would only add failure
// modes.
func (s *Server) getPolicies(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.cfg.PolicyFile)
	if err != nil {
		s.logger.Error("failed to read policy data",
			zap.String("path", s.cfg.PolicyFile),
			zap.Error(err),
		)
		metrics.ObserveHTTPRequest(r.URL.Path, strconv.Itoa(http.StatusInternalServerError))
		writeJSON(w, http.StatusInternalServerError, readErrorBody)
		return
	}
	metrics.ObserveHTTPRequest(r.URL.Path, strconv.Itoa(http.StatusOK))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("write policy response", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
