package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/cloudcfg/internal/auth"
)

// healthCheckTimeout bounds each dependency check on /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/config", func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermConfigRead))
				r.Get("/", s.handleGetConfig)
				r.Get("/{key}", s.handleGetConfigKey)
			})

			r.Route("/snapshots", func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermSnapshotRead))
				r.Get("/", s.handleListSnapshots)
				r.Get("/{id}", s.handleGetSnapshot)
			})

			r.With(s.requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAudit)
		})
	})

	return r
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Loaded  bool              `json:"configuration_loaded"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// handleHealth reports "ok", or "degraded" with 503 when any dependency
// check fails or no configuration is loaded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Version: s.version,
		Loaded:  s.store.Initialized(),
	}
	if !resp.Loaded {
		resp.Status = "degraded"
	}

	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
		names := make([]string, 0, len(s.checks))
		for name := range s.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := s.checks[name].HealthCheck(ctx)
			cancel()
			if err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
