// Aurad is the adaptive compression daemon for AI chat traffic.
//
// It serves the AURA protocol over HTTP: semantic template compression,
// per-conversation pattern acceleration, platform-wide frequency learning,
// and background template discovery. Configuration comes from a YAML file
// plus AURAD_* environment overrides.
//
// Usage:
//
//	aurad --config aurad.yaml
//	aurad version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/aurad/internal/accel"
	"github.com/fyrsmithlabs/aurad/internal/aura"
	"github.com/fyrsmithlabs/aurad/internal/config"
	"github.com/fyrsmithlabs/aurad/internal/discovery"
	"github.com/fyrsmithlabs/aurad/internal/events"
	aurahttp "github.com/fyrsmithlabs/aurad/internal/http"
	"github.com/fyrsmithlabs/aurad/internal/logging"
	"github.com/fyrsmithlabs/aurad/internal/telemetry"
	"github.com/fyrsmithlabs/aurad/internal/templatestore"
)

// Build-time variables set via ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the aurad config file")
	flag.Parse()

	if flag.Arg(0) == "version" {
		printVersion()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("aurad %s\n", version)
	fmt.Printf("  commit: %s\n", gitCommit)
	fmt.Printf("  built:  %s\n", buildDate)
}

// run starts the aurad server and blocks until context cancellation.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes telemetry and the structured logger
//  3. Builds the compression service and conversation accelerator
//  4. Connects optional infrastructure (NATS eventing, store watcher)
//  5. Starts the discovery worker when enabled
//  6. Starts the HTTP server
//
// Returns http.ErrServerClosed after a graceful shutdown.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.NewConfig(cfg.Telemetry, version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg, err := logging.NewConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if health := tel.Health(); health.Degraded {
		logger.Underlying().Warn("telemetry degraded",
			zap.String("reason", health.Reason))
	}

	logger.Underlying().Info("starting aurad",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("store_path", cfg.Aura.StorePath),
		zap.Bool("events", cfg.Events.URL != ""),
		zap.Bool("discovery", cfg.Discovery.Enabled))

	deps, err := initDependencies(ctx, cfg, logger.Underlying())
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return err
	}
	deps.telemetry = tel
	defer deps.Close(logger.Underlying())

	srv, err := aurahttp.NewServer(aurahttp.Dependencies{
		Aura:      deps.aura,
		Accel:     deps.accel,
		Discovery: deps.worker,
		Publisher: deps.publisher,
	}, logger, &aurahttp.Config{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		StorePath:       cfg.Aura.StorePath,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

// dependencies holds the daemon's long-lived components so shutdown can
// release them in reverse construction order.
type dependencies struct {
	aura      *aura.Service
	accel     *accel.Manager
	publisher *events.Publisher
	worker    *discovery.Worker

	aggregator *events.Aggregator
	watcher    *templatestore.Watcher
	nats       *nats.Conn
	telemetry  *telemetry.Telemetry
}

func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}

	if cfg.Aura.StorePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Aura.StorePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	svc, err := aura.NewService(aura.Config{
		StorePath:     cfg.Aura.StorePath,
		MaxTextLength: cfg.Aura.MaxTextLength,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create compression service: %w", err)
	}
	deps.aura = svc

	mgr, err := accel.NewManager(accel.ManagerConfig{
		Conversation: accel.ConversationConfig{
			CacheCapacity: cfg.Accel.CacheCapacity,
			Preload:       cfg.Accel.Preload,
		},
		Platform: accel.PlatformConfig{
			MaxPatterns: cfg.Accel.PlatformPatterns,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create accelerator: %w", err)
	}
	deps.accel = mgr

	if cfg.Events.URL != "" {
		opts := []nats.Option{
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(5),
			nats.ReconnectWait(1 * time.Second),
		}
		if token := cfg.Events.AuthToken.Value(); token != "" {
			opts = append(opts, nats.Token(token))
		}
		nc, err := nats.Connect(cfg.Events.URL, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		deps.nats = nc
		logger.Info("connected to event bus", zap.String("url", cfg.Events.URL))
	}

	// Publisher is always constructed: with no NATS connection it is a
	// disabled no-op, which keeps downstream interface values non-nil.
	deps.publisher = events.NewPublisher(deps.nats, logger)

	if deps.nats != nil {
		agg, err := events.NewAggregator(deps.nats, mgr.Platform(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create aggregator: %w", err)
		}
		if err := agg.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start aggregator: %w", err)
		}
		deps.aggregator = agg
	}

	if cfg.Aura.Watch && cfg.Aura.StorePath != "" {
		watcher, err := templatestore.NewWatcher(cfg.Aura.StorePath, func(templates map[uint16]string) {
			for id, pattern := range templates {
				svc.RegisterTemplate(id, pattern)
			}
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create store watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start store watcher: %w", err)
		}
		deps.watcher = watcher
	}

	if cfg.Discovery.Enabled {
		worker, err := discovery.NewWorker(discovery.WorkerConfig{
			Interval:            cfg.Discovery.Interval.Duration(),
			MinSupport:          cfg.Discovery.MinSupport,
			SimilarityThreshold: cfg.Discovery.Similarity,
			MaxSlots:            cfg.Discovery.MaxSlots,
			MinLiteral:          cfg.Discovery.MinLiteral,
			MaxCorpus:           cfg.Discovery.MaxCorpus,
			Range:               cfg.Discovery.Range,
			PolicyPath:          cfg.Discovery.PolicyPath,
			StorePath:           cfg.Aura.StorePath,
		}, svc, deps.publisher, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create discovery worker: %w", err)
		}
		if err := worker.Start(); err != nil {
			return nil, fmt.Errorf("failed to start discovery worker: %w", err)
		}
		deps.worker = worker
	}

	return deps, nil
}

// Close releases dependencies in reverse construction order. Telemetry
// goes last so shutdown logs still reach the exporter.
func (d *dependencies) Close(logger *zap.Logger) {
	if d.worker != nil {
		if err := d.worker.Stop(); err != nil {
			logger.Warn("discovery worker stop failed", zap.Error(err))
		}
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.aggregator != nil {
		if err := d.aggregator.Drain(); err != nil {
			logger.Warn("aggregator drain failed", zap.Error(err))
		}
	}
	if d.nats != nil {
		d.nats.Close()
	}
	if d.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
}
