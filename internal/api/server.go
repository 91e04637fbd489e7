package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sceneforge/sceneforge-core/internal/infrastructure/config"
	"github.com/sceneforge/sceneforge-core/internal/infrastructure/logging"
	"github.com/sceneforge/sceneforge-core/internal/render"
	"github.com/sceneforge/sceneforge-core/internal/template"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Dispatcher renders a batch of scenes. Satisfied by *render.Coordinator.
type Dispatcher interface {
	Dispatch(ctx context.Context, requests []render.SceneRenderRequest) render.BatchResult
}

// BatchStore persists and retrieves batch history. Satisfied by *render.Repository.
type BatchStore interface {
	SaveBatch(ctx context.Context, result render.BatchResult) error
	GetBatch(ctx context.Context, batchID string) (*render.BatchSummary, error)
	ListBatches(ctx context.Context, limit int) ([]render.BatchSummary, error)
	ListOutcomes(ctx context.Context, batchID string) ([]render.RenderOutcome, error)
}

// TemplateCatalog lists the available scene templates. Satisfied by *template.Store.
type TemplateCatalog interface {
	Templates() []template.Info
}

// HealthChecker reports the health of one infrastructure component.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Dispatcher Dispatcher
	Store      BatchStore // optional: batch history endpoints return 404 without it
	Templates  TemplateCatalog
	Checkers   map[string]HealthChecker // optional: per-component health detail
	Version    string
}

// Server is the HTTP API server for Sceneforge Core.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	dispatcher Dispatcher
	store      BatchStore
	templates  TemplateCatalog
	checkers   map[string]HealthChecker
	version    string
	server     *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, dispatcher, templates)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Templates == nil {
		return nil, fmt.Errorf("template catalog is required")
	}
	// Store is optional: without it batches still render, they just aren't queryable

	return &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		dispatcher: deps.Dispatcher,
		store:      deps.Store,
		templates:  deps.Templates,
		checkers:   deps.Checkers,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections. A batch that is still rendering
// when the deadline hits is abandoned mid-flight; its partial results are
// not persisted.
//
// Returns:
//   - error: If shutdown encounters an error
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
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
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
