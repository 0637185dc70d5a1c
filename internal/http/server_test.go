package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/aurad/internal/accel"
	"github.com/fyrsmithlabs/aurad/internal/aura"
	"github.com/fyrsmithlabs/aurad/internal/logging"
)

func TestNewServer(t *testing.T) {
	t.Run("creates server with valid dependencies", func(t *testing.T) {
		server := setupTestServer(t)
		assert.NotNil(t, server)
		assert.NotNil(t, server.echo)
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		deps := testDependencies(t)

		server, err := NewServer(deps, logging.NewTestLogger().Logger, nil)
		require.NoError(t, err)
		assert.Equal(t, 8741, server.config.Port)
		assert.Equal(t, 10*time.Second, server.config.ShutdownTimeout)
	})

	t.Run("returns error when aura service is nil", func(t *testing.T) {
		deps := testDependencies(t)
		deps.Aura = nil

		_, err := NewServer(deps, logging.NewTestLogger().Logger, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "aura service cannot be nil")
	})

	t.Run("returns error when accel manager is nil", func(t *testing.T) {
		deps := testDependencies(t)
		deps.Accel = nil

		_, err := NewServer(deps, logging.NewTestLogger().Logger, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accel manager cannot be nil")
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		deps := testDependencies(t)

		_, err := NewServer(deps, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})
}

func TestHandleHealth(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "aurad", resp.Service)
}

func TestHandleReady(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	server.ready.Store(true)

	rec = httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestServerLifecycle(t *testing.T) {
	t.Run("starts and shuts down on context cancel", func(t *testing.T) {
		deps := testDependencies(t)

		cfg := &Config{
			Port:            0, // random available port
			ShutdownTimeout: 5 * time.Second,
		}
		server, err := NewServer(deps, logging.NewTestLogger().Logger, cfg)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(ctx)
		}()

		// Give the server time to start
		time.Sleep(100 * time.Millisecond)
		assert.True(t, server.ready.Load())

		cancel()

		select {
		case err := <-errCh:
			assert.ErrorIs(t, err, http.ErrServerClosed)
		case <-time.After(6 * time.Second):
			t.Fatal("server did not shut down in time")
		}
		assert.False(t, server.ready.Load())
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("adds request ID to response", func(t *testing.T) {
		server := setupTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("recovers from panic", func(t *testing.T) {
		server := setupTestServer(t)

		server.echo.GET("/panic", func(c echo.Context) error {
			panic("test panic")
		})

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		rec := httptest.NewRecorder()

		assert.NotPanics(t, func() {
			server.echo.ServeHTTP(rec, req)
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("propagates request id into log context", func(t *testing.T) {
		deps := testDependencies(t)
		tl := logging.NewTestLogger()

		server, err := NewServer(deps, tl.Logger, nil)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
		req.Header.Set(echo.HeaderXRequestID, "req-abc-123")
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		entries := tl.FilterMessage("http request").All()
		require.NotEmpty(t, entries)

		found := false
		for _, f := range entries[0].Context {
			if f.Key == "request.id" && f.String == "req-abc-123" {
				found = true
			}
		}
		assert.True(t, found, "request.id field not propagated to access log")
	})

	t.Run("access log carries the committed error status", func(t *testing.T) {
		deps := testDependencies(t)
		tl := logging.NewTestLogger()

		server, err := NewServer(deps, tl.Logger, nil)
		require.NoError(t, err)

		// Missing body -> 400 from the handler
		req := httptest.NewRequest(http.MethodPost, "/v1/decompress", nil)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		entries := tl.FilterMessage("http request").All()
		require.NotEmpty(t, entries)

		var status int64
		for _, f := range entries[0].Context {
			if f.Key == "status" {
				status = f.Integer
			}
		}
		assert.Equal(t, int64(http.StatusBadRequest), status)
	})
}

// testDependencies builds the required services with quiet loggers.
func testDependencies(t *testing.T) Dependencies {
	t.Helper()

	svc, err := aura.NewService(aura.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)

	mgr, err := accel.NewManager(accel.ManagerConfig{}, zap.NewNop())
	require.NoError(t, err)

	return Dependencies{Aura: svc, Accel: mgr}
}

// setupTestServer creates a test server with default configuration.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	server, err := NewServer(testDependencies(t), logging.NewTestLogger().Logger, nil)
	require.NoError(t, err)
	return server
}
