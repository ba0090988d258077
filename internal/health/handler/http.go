package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lead-capture/internal/platform/httpx"
)

// pingTimeout bounds each dependency check of a readiness probe.
const pingTimeout = 2 * time.Second

// Serving statuses reported in the response body.
const (
	StatusServing    = "ok"
	StatusNotServing = "not_serving"
)

// Pinger is a dependency the readiness probe checks (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger (e.g. a Redis PING).
type PingFunc func(ctx context.Context) error

// PingContext calls f.
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Server serves liveness and readiness probes.
type Server struct {
	checks map[string]Pinger
	logger *zap.Logger
}

// NewServer returns a health Server. checks maps a dependency name to its Pinger; nil entries are skipped.
func NewServer(checks map[string]Pinger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	live := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			live[name] = p
		}
	}
	return &Server{checks: live, logger: logger}
}

// Register mounts /healthz and /readyz on r.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/healthz", s.Liveness).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.Readiness).Methods(http.MethodGet, http.MethodHead)
}

// Liveness reports that the process is up.
func (s *Server) Liveness(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusServing})
}

// Readiness pings every dependency and reports 503 if any fails.
func (s *Server) Readiness(w http.ResponseWriter, r *http.Request) {
	for name, p := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		err := p.PingContext(ctx)
		cancel()
		if err != nil {
			s.logger.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": StatusNotServing})
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusServing})
}
