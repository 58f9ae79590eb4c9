package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/cloudcfg/internal/audit"
	"github.com/nerrad567/cloudcfg/internal/infrastructure/config"
	"github.com/nerrad567/cloudcfg/internal/infrastructure/logging"
	"github.com/nerrad567/cloudcfg/internal/settings"
	"github.com/nerrad567/cloudcfg/internal/snapshot"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by every dependency reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Store    *settings.Store
	// Snapshots is optional; without it the snapshot routes answer 503.
	Snapshots snapshot.Repository
	// Audit is optional; without it reads are not recorded and /audit
	// answers 503.
	Audit audit.Repository
	// Checks are reported by name on /health.
	Checks  map[string]HealthChecker
	Version string
}

// Server is the diagnostic HTTP API server.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	store     *settings.Store
	snapshots snapshot.Repository
	audit     audit.Repository
	checks    map[string]HealthChecker
	version   string
	server    *http.Server
	listener  net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, store, signing secret)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Store == nil {
		return nil, errors.New("settings store is required")
	}
	if deps.Security.JWT.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	return &Server{
		cfg:       deps.Config,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		store:     deps.Store,
		snapshots: deps.Snapshots,
		audit:     deps.Audit,
		checks:    deps.Checks,
		version:   deps.Version,
	}, nil
}

// Start binds the listener and serves in a background goroutine.
//
// The listener is bound before Start returns, so a port conflict is reported
// here rather than logged later. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context bounding the bind
//
// Returns:
//   - error: If the listener cannot be bound
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("binding API listener on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", ln.Addr().String(),
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", ln.Addr().String())
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}
