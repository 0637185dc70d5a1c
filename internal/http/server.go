// Package http provides the aurad HTTP API.
//
// The server exposes the compression protocol (/v1/compress,
// /v1/decompress, /v1/metadata), the template registry (/v1/templates),
// accelerator statistics (/v1/stats, /v1/conversations/:id), and the
// operational endpoints /healthz, /readyz and /metrics.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/aurad/internal/accel"
	"github.com/fyrsmithlabs/aurad/internal/aura"
	"github.com/fyrsmithlabs/aurad/internal/discovery"
	"github.com/fyrsmithlabs/aurad/internal/events"
	"github.com/fyrsmithlabs/aurad/internal/logging"
)

const serviceName = "aurad"

// bodyLimit bounds request bodies. A maximum-length text still fits
// after base64 and JSON framing.
const bodyLimit = "4M"

// Config holds HTTP server configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration

	// RateLimit is the sustained per-IP request rate in requests per
	// second; RateBurst the instantaneous burst. Zero disables limiting.
	RateLimit float64
	RateBurst int

	// StorePath, when set, persists templates registered through the
	// API alongside discovered ones.
	StorePath string
}

// Dependencies holds the services the API fronts. Aura and Accel are
// required; Discovery and Publisher may be nil on nodes that run
// without background discovery or a broker.
type Dependencies struct {
	Aura      *aura.Service
	Accel     *accel.Manager
	Discovery *discovery.Worker
	Publisher *events.Publisher
}

// Server provides HTTP endpoints for aurad.
type Server struct {
	echo      *echo.Echo
	aura      *aura.Service
	accel     *accel.Manager
	discovery *discovery.Worker
	publisher *events.Publisher
	logger    *logging.Logger
	config    *Config

	ready atomic.Bool
}

// NewServer creates a new HTTP server.
func NewServer(deps Dependencies, logger *logging.Logger, cfg *Config) (*Server, error) {
	if deps.Aura == nil {
		return nil, fmt.Errorf("aura service cannot be nil")
	}
	if deps.Accel == nil {
		return nil, fmt.Errorf("accel manager cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Port: 8741}
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(bodyLimit))

	s := &Server{
		echo:      e,
		aura:      deps.Aura,
		accel:     deps.Accel,
		discovery: deps.Discovery,
		publisher: deps.Publisher,
		logger:    logger,
		config:    cfg,
	}

	// The log middleware commits error responses, so it runs innermost;
	// metrics outside it then observe the status actually sent.
	e.Use(s.requestContextMiddleware())
	e.Use(NewHTTPMetrics(logger.Underlying()).Middleware())
	e.Use(s.requestLogMiddleware())

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/readyz", s.handleReady)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/v1")
	if s.config.RateLimit > 0 {
		v1.Use(s.rateLimitMiddleware())
	}
	v1.POST("/compress", s.handleCompress)
	v1.POST("/decompress", s.handleDecompress)
	v1.POST("/metadata", s.handleMetadata)
	v1.GET("/templates", s.handleListTemplates)
	v1.POST("/templates", s.handleRegisterTemplate)
	v1.GET("/stats", s.handleStats)
	v1.GET("/conversations/:id", s.handleConversationStats)
	v1.DELETE("/conversations/:id", s.handleEndConversation)
}

// requestContextMiddleware copies the request ID assigned by echo into
// the request context so log lines correlate. Client-supplied IDs that
// fail validation are left out rather than rejected.
func (s *Server) requestContextMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid != "" && logging.ValidID(rid) {
				req := c.Request()
				c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), rid)))
			}
			return next(c)
		}
	}
}

// requestLogMiddleware emits one access log line per request. Probe and
// scrape endpoints log at debug to keep steady-state logs quiet.
func (s *Server) requestLogMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Commit the error response so the logged status is the
				// one actually sent.
				c.Error(err)
			}
			duration := time.Since(start)

			ctx := c.Request().Context()
			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
			}

			switch c.Path() {
			case "/healthz", "/readyz", "/metrics":
				s.logger.Debug(ctx, "http request", fields...)
			default:
				s.logger.Info(ctx, "http request", fields...)
			}

			return err
		}
	}
}

// handleHealth reports process liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: serviceName})
}

// handleReady reports readiness to serve traffic.
func (s *Server) handleReady(c echo.Context) error {
	if !s.ready.Load() {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "starting", Service: serviceName})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ready", Service: serviceName})
}

// Start starts the HTTP server and blocks until the context is
// cancelled. Returns http.ErrServerClosed on graceful shutdown, or any
// other error encountered during startup or shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info(ctx, "starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		s.ready.Store(true)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.ready.Store(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		s.logger.Info(shutdownCtx, "shutting down http server")
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Echo returns the underlying Echo instance for registering additional
// routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
