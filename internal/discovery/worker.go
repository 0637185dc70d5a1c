package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/aurad/internal/aura"
	"github.com/fyrsmithlabs/aurad/internal/templatestore"
)

const tracerName = "github.com/fyrsmithlabs/aurad/internal/discovery"
const meterName = "discovery"

// runTimeout bounds a single discovery run.
const runTimeout = 5 * time.Minute

// Publisher announces promoted templates to interested peers. A nil
// publisher disables announcements.
type Publisher interface {
	TemplateDiscovered(ctx context.Context, id uint16, pattern string, support int) error
}

// WorkerConfig configures the background discovery worker. Zero values
// select the defaults.
type WorkerConfig struct {
	// Interval is the time between discovery runs.
	Interval time.Duration

	// MinSupport is the minimum occurrences for an n-gram candidate.
	MinSupport int

	// SimilarityThreshold controls candidate clustering.
	SimilarityThreshold float64

	// MaxSlots caps the variable positions in an extracted pattern.
	MaxSlots int

	// MinLiteral is the minimum literal content of a promotable pattern.
	MinLiteral int

	// MaxCorpus bounds the messages retained between runs.
	MaxCorpus int

	// Range names the allocation range to draw template IDs from.
	// Empty selects the policy's default range.
	Range string

	// PolicyPath points at a TOML allocation policy. Empty or missing
	// files use the built-in policy.
	PolicyPath string

	// StorePath is where promoted templates are persisted. Empty
	// disables persistence.
	StorePath string
}

// DefaultWorkerConfig returns the standard discovery settings.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Interval:            time.Hour,
		MinSupport:          5,
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxSlots:            DefaultMaxSlots,
		MinLiteral:          DefaultMinLiteral,
		MaxCorpus:           DefaultMaxCorpus,
	}
}

// Worker runs the discovery pipeline on a schedule, promoting accepted
// patterns into the compression service.
//
// Thread Safety: all public methods are safe for concurrent use. The
// running state is protected by a mutex so Start and Stop cannot race.
type Worker struct {
	config WorkerConfig

	miner     *Miner
	clusterer *Clusterer
	extractor *Extractor
	screener  *Screener
	allocator *Allocator

	service   *aura.Service
	publisher Publisher
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}

	tracer trace.Tracer
	meter  metric.Meter

	// Metrics
	candidatesSeen   metric.Int64Counter
	patternsPromoted metric.Int64Counter
	patternsRejected metric.Int64Counter
	runDuration      metric.Float64Histogram
}

// NewWorker creates a discovery worker bound to a compression service.
// The worker does not start automatically; call Start to begin runs.
func NewWorker(config WorkerConfig, service *aura.Service, publisher Publisher, logger *zap.Logger) (*Worker, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	defaults := DefaultWorkerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.MinSupport <= 0 {
		config.MinSupport = defaults.MinSupport
	}
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = defaults.SimilarityThreshold
	}
	if config.MaxSlots <= 0 {
		config.MaxSlots = defaults.MaxSlots
	}
	if config.MinLiteral <= 0 {
		config.MinLiteral = defaults.MinLiteral
	}
	if config.MaxCorpus <= 0 {
		config.MaxCorpus = defaults.MaxCorpus
	}

	policy, err := LoadPolicy(config.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocation policy: %w", err)
	}
	allocator, err := NewAllocator(policy, config.Range)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		config:    config,
		miner:     NewMiner(config.MaxCorpus, config.MinSupport),
		clusterer: NewClusterer(config.SimilarityThreshold),
		extractor: NewExtractor(config.MaxSlots),
		screener:  NewScreener(config.MinLiteral),
		allocator: allocator,
		service:   service,
		publisher: publisher,
		logger:    logger,
		stopCh:    make(chan struct{}),
		tracer:    otel.Tracer(tracerName),
		meter:     otel.Meter(meterName),
	}

	if err := w.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return w, nil
}

// Observe records a response text for the next discovery run.
func (w *Worker) Observe(text string) {
	w.miner.Add(text)
}

// CorpusSize reports the number of observed messages awaiting mining.
func (w *Worker) CorpusSize() int {
	return w.miner.Len()
}

// Start begins scheduled discovery runs. Calling Start on a running
// worker returns an error without starting a second goroutine.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("discovery worker is already running")
	}

	w.stopCh = make(chan struct{})
	w.running = true

	w.logger.Info("discovery worker started",
		zap.Duration("interval", w.config.Interval),
		zap.Int("min_support", w.config.MinSupport),
		zap.String("range", w.config.Range),
	)

	go w.run()
	return nil
}

// Stop halts scheduled runs. Stopping an already stopped worker is a
// no-op.
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		w.logger.Debug("discovery worker stop called but not running")
		return nil
	}

	w.logger.Info("stopping discovery worker")
	w.running = false
	close(w.stopCh)
	return nil
}

// run is the scheduler loop. Each tick triggers one discovery run;
// a panicking run is logged and the loop continues.
func (w *Worker) run() {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("discovery worker goroutine panicked, recovering",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
		}
	}()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.safeDiscover()
		case <-w.stopCh:
			w.logger.Debug("discovery worker received stop signal")
			return
		}
	}
}

// safeDiscover wraps a discovery run with panic recovery so a single
// bad run cannot kill the scheduler.
func (w *Worker) safeDiscover() {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("discovery run panicked, continuing",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	w.discover(ctx)
}

// discover executes one pass of the pipeline: drain the corpus, mine
// candidates, cluster, extract, screen, then allocate IDs and register
// the survivors. Returns the number of templates promoted.
func (w *Worker) discover(ctx context.Context) int {
	ctx, span := w.tracer.Start(ctx, "discovery.run")
	defer span.End()

	start := time.Now()

	if w.miner.Len() < w.config.MinSupport {
		w.logger.Debug("corpus too small, skipping discovery run",
			zap.Int("messages", w.miner.Len()),
			zap.Int("min_support", w.config.MinSupport),
		)
		return 0
	}
	messages := w.miner.Drain()

	// Sync with the live library: IDs registered by other paths must
	// not be reallocated, and known patterns must not be re-promoted.
	registered := w.service.ListTemplates()
	known := make(map[string]bool, len(registered))
	for id, pattern := range registered {
		w.allocator.MarkUsed(id)
		known[pattern] = true
	}

	candidates := w.miner.Mine(messages)
	w.candidatesSeen.Add(ctx, int64(len(candidates)))
	if len(candidates) == 0 {
		w.logger.Debug("no candidates met support threshold",
			zap.Int("messages", len(messages)))
		return 0
	}

	clusters := w.clusterer.Cluster(candidates)

	accepted := make([]PatternCandidate, 0, len(clusters))
	for _, cluster := range clusters {
		candidate, ok := w.extractor.Extract(cluster)
		if !ok {
			continue
		}
		if safe, reason := w.screener.Screen(candidate); !safe {
			w.patternsRejected.Add(ctx, 1,
				metric.WithAttributes(attribute.String("reason", reason)))
			w.logger.Debug("pattern rejected",
				zap.String("pattern", candidate.Pattern),
				zap.String("reason", reason))
			continue
		}
		if known[candidate.Pattern] {
			continue
		}
		accepted = append(accepted, candidate)
	}

	// Strongest support first; ties break on text so promotion order
	// is stable across runs.
	sort.Slice(accepted, func(i, j int) bool {
		if accepted[i].Support != accepted[j].Support {
			return accepted[i].Support > accepted[j].Support
		}
		return accepted[i].Pattern < accepted[j].Pattern
	})

	promoted := 0
	for _, candidate := range accepted {
		id, err := w.allocator.Next()
		if err != nil {
			w.logger.Warn("template ID allocation failed, deferring remaining candidates",
				zap.Error(err),
				zap.Int("remaining", len(accepted)-promoted))
			break
		}

		w.service.RegisterTemplate(id, candidate.Pattern)
		known[candidate.Pattern] = true
		promoted++
		w.patternsPromoted.Add(ctx, 1)

		w.logger.Info("template promoted",
			zap.Uint16("template_id", id),
			zap.String("pattern", candidate.Pattern),
			zap.Int("support", candidate.Support),
			zap.Int("slots", candidate.SlotCount),
		)

		if w.publisher != nil {
			if err := w.publisher.TemplateDiscovered(ctx, id, candidate.Pattern, candidate.Support); err != nil {
				w.logger.Warn("failed to publish discovery event", zap.Error(err))
			}
		}
	}

	if promoted > 0 && w.config.StorePath != "" {
		if err := templatestore.Save(w.config.StorePath, w.service.ListTemplates()); err != nil {
			w.logger.Error("failed to persist templates",
				zap.String("path", w.config.StorePath),
				zap.Error(err))
		}
	}

	elapsed := time.Since(start)
	w.runDuration.Record(ctx, elapsed.Seconds())
	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("clusters", len(clusters)),
		attribute.Int("promoted", promoted),
	)

	w.logger.Info("discovery run completed",
		zap.Int("messages", len(messages)),
		zap.Int("candidates", len(candidates)),
		zap.Int("promoted", promoted),
		zap.Duration("duration", elapsed),
	)
	return promoted
}

// initMetrics initializes OpenTelemetry metrics
func (w *Worker) initMetrics() error {
	var err error

	w.candidatesSeen, err = w.meter.Int64Counter(
		"discovery.candidates_total",
		metric.WithDescription("Candidate n-grams considered by discovery runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create candidates counter: %w", err)
	}

	w.patternsPromoted, err = w.meter.Int64Counter(
		"discovery.promoted_total",
		metric.WithDescription("Patterns promoted into the template library"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create promoted counter: %w", err)
	}

	w.patternsRejected, err = w.meter.Int64Counter(
		"discovery.rejected_total",
		metric.WithDescription("Patterns rejected by safety screening"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rejected counter: %w", err)
	}

	w.runDuration, err = w.meter.Float64Histogram(
		"discovery.run.duration_seconds",
		metric.WithDescription("Duration of discovery runs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1, 5, 30, 60),
	)
	if err != nil {
		return fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	return nil
}
