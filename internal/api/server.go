package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-device/internal/callback"
	"github.com/nerrad567/gray-logic-device/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-device/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// CallbackRouter dispatches registry callbacks. *callback.Router satisfies it.
type CallbackRouter interface {
	Handle(ctx context.Context, verb callback.Verb, n *callback.Notification) (callback.Outcome, error)
}

// FlagSetter changes the transform flag. *transform.Flag satisfies it.
type FlagSetter interface {
	Set(enabled bool)
}

// DiscoveryTrigger starts an asynchronous scan. *discovery.Scanner
// satisfies it.
type DiscoveryTrigger interface {
	Trigger() (scanID string, started bool)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	CallbackPath string
	Logger       *logging.Logger
	Callbacks    CallbackRouter
	Transform    FlagSetter

	// Discovery is optional; without it the discovery endpoint answers 503.
	Discovery DiscoveryTrigger

	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Server is the HTTP API server of the device service.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	callbackPath string
	logger       *logging.Logger
	callbacks    CallbackRouter
	transform    FlagSetter
	discovery    DiscoveryTrigger
	metrics      *metrics
	gatherer     prometheus.Gatherer
	server       *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, callback router, transform flag)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing or metrics fail to register
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Callbacks == nil {
		return nil, fmt.Errorf("callback router is required")
	}
	if deps.Transform == nil {
		return nil, fmt.Errorf("transform flag is required")
	}
	path := strings.Trim(deps.CallbackPath, "/")
	if path == "" {
		return nil, fmt.Errorf("callback path is required")
	}

	reg := deps.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("registering API metrics: %w", err)
	}

	return &Server{
		cfg:          deps.Config,
		callbackPath: "/" + path,
		logger:       deps.Logger,
		callbacks:    deps.Callbacks,
		transform:    deps.Transform,
		discovery:    deps.Discovery,
		metrics:      m,
		gatherer:     gatherer,
	}, nil
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
//
// Returns:
//   - error: Always nil; listener errors are logged
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
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
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
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
		return fmt.Errorf("api server not started")
	}
	return nil
}
