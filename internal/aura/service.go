package aura

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/aurad/internal/metadata"
	"github.com/fyrsmithlabs/aurad/internal/template"
	"github.com/fyrsmithlabs/aurad/internal/templatestore"
)

const tracerName = "github.com/fyrsmithlabs/aurad/internal/aura"
const meterName = "aura"

// Service orchestrates response compression and decompression.
type Service struct {
	config  Config
	library *template.Library
	logger  *zap.Logger

	tracer trace.Tracer
	meter  metric.Meter

	// Metrics
	compressCounter   metric.Int64Counter
	compressDuration  metric.Float64Histogram
	compressRatio     metric.Float64Histogram
	decompressCounter metric.Int64Counter
	errorCounter      metric.Int64Counter
}

// NewService creates a compression service with the built-in template
// set. When config.StorePath is set, persisted templates are loaded on
// top; a load failure logs a warning and keeps the built-ins, since a
// node with only core templates still serves traffic correctly.
func NewService(config Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxTextLength <= 0 {
		config.MaxTextLength = DefaultMaxTextLength
	}

	s := &Service{
		config:  config,
		library: template.NewLibrary(),
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
		meter:   otel.Meter(meterName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if config.StorePath != "" {
		loaded, err := templatestore.Load(config.StorePath)
		if err != nil {
			logger.Warn("template store load failed, continuing with built-ins",
				zap.String("path", config.StorePath),
				zap.Error(err))
		} else {
			for id, pattern := range loaded {
				s.library.Register(id, pattern)
			}
			logger.Info("loaded persisted templates",
				zap.String("path", config.StorePath),
				zap.Int("count", len(loaded)))
		}
	}

	return s, nil
}

// Compress encodes text into a wire payload.
//
// With an explicit templateID the slots are encoded as given, without
// consulting the library. Otherwise the text is matched against the
// library and falls back to an auralite literal when nothing matches.
func (s *Service) Compress(ctx context.Context, text string, templateID *uint16, slots []string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "aura.compress",
		trace.WithAttributes(
			attribute.Int("text_length", len(text)),
			attribute.Bool("explicit_template", templateID != nil),
		),
	)
	defer span.End()

	start := time.Now()

	if len(text) > s.config.MaxTextLength {
		err := &CompressionFailedError{Reason: fmt.Sprintf("text length %d exceeds maximum %d", len(text), s.config.MaxTextLength)}
		s.recordError(ctx, span, "compress", "text_too_long", err)
		return nil, err
	}

	var (
		payload []byte
		method  Method
		ids     []uint16
	)

	if templateID != nil {
		encoded, err := encodeBinarySemantic(*templateID, slots)
		if err != nil {
			s.recordError(ctx, span, "compress", "invalid_payload", err)
			return nil, err
		}
		payload, method, ids = encoded, MethodBinarySemantic, []uint16{*templateID}
	} else {
		if id, matched, ok := s.library.Match(text); ok && id <= MaxWireTemplateID {
			if encoded, err := encodeBinarySemantic(id, matched); err == nil {
				payload, method, ids = encoded, MethodBinarySemantic, []uint16{id}
			}
		}
		if payload == nil {
			payload, method = encodeAuraLite(text), MethodAuraLite
		}
	}

	elapsed := time.Since(start)
	meta := CompressionMetadata{
		OriginalSize:   len(text),
		CompressedSize: len(payload),
		Ratio:          ratioOf(len(text), len(payload)),
		Method:         method.String(),
		TemplateIDs:    ids,
		Timestamp:      time.Now().Unix(),
	}

	attrs := metric.WithAttributes(attribute.String("method", meta.Method))
	s.compressCounter.Add(ctx, 1, attrs)
	s.compressDuration.Record(ctx, elapsed.Seconds(), attrs)
	s.compressRatio.Record(ctx, meta.Ratio, attrs)

	span.SetAttributes(
		attribute.String("method", meta.Method),
		attribute.Int("compressed_size", meta.CompressedSize),
		attribute.Float64("ratio", meta.Ratio),
	)

	return &Result{Payload: payload, Metadata: meta, ProcessingTime: elapsed}, nil
}

// Decompress recovers the original text from a wire payload.
func (s *Service) Decompress(ctx context.Context, payload []byte) (*DecompressResult, error) {
	ctx, span := s.tracer.Start(ctx, "aura.decompress",
		trace.WithAttributes(attribute.Int("payload_size", len(payload))),
	)
	defer span.End()

	start := time.Now()

	if len(payload) == 0 {
		err := &DecompressionFailedError{Reason: "empty payload"}
		s.recordError(ctx, span, "decompress", "empty_payload", err)
		return nil, err
	}

	method, err := MethodFromByte(payload[0])
	if err != nil {
		s.recordError(ctx, span, "decompress", "unknown_method", err)
		return nil, err
	}

	var (
		text string
		ids  []uint16
	)

	switch method {
	case MethodBinarySemantic:
		id, slots, derr := decodeBinarySemantic(payload)
		if derr != nil {
			s.recordError(ctx, span, "decompress", "malformed_payload", derr)
			return nil, derr
		}
		formatted, ok := s.library.Format(id, slots)
		if !ok {
			nferr := &TemplateNotFoundError{ID: id}
			s.recordError(ctx, span, "decompress", "template_not_found", nferr)
			return nil, nferr
		}
		text, ids = formatted, []uint16{id}

	case MethodAuraLite:
		text, err = decodeAuraLite(payload)
		if err != nil {
			s.recordError(ctx, span, "decompress", "malformed_payload", err)
			return nil, err
		}

	case MethodUncompressed:
		text, err = decodeUncompressed(payload)
		if err != nil {
			s.recordError(ctx, span, "decompress", "malformed_payload", err)
			return nil, err
		}

	default:
		rerr := &DecompressionFailedError{Reason: fmt.Sprintf("method %q is reserved", method)}
		s.recordError(ctx, span, "decompress", "reserved_method", rerr)
		return nil, rerr
	}

	elapsed := time.Since(start)
	s.decompressCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("method", method.String())))

	span.SetAttributes(
		attribute.String("method", method.String()),
		attribute.Int("text_length", len(text)),
	)

	return &DecompressResult{
		Text:           text,
		Metadata:       DecompressionMetadata{Method: method.String(), TemplateIDs: ids},
		ProcessingTime: elapsed,
	}, nil
}

// ExtractMetadata derives the metadata side-channel from a payload
// without decompressing it. Malformed or unknown payloads yield a
// single fallback entry so downstream classification still has a
// signal; an empty payload yields nothing.
func (s *Service) ExtractMetadata(payload []byte) []metadata.Entry {
	if len(payload) == 0 {
		return nil
	}

	switch Method(payload[0]) {
	case MethodBinarySemantic:
		if len(payload) < 2 {
			return fallbackEntries()
		}
		return []metadata.Entry{{TokenIndex: 0, Kind: metadata.KindTemplate, Value: uint16(payload[1])}}

	case MethodAuraLite:
		if len(payload) < 5 {
			return fallbackEntries()
		}
		length := binary.BigEndian.Uint32(payload[1:5])
		if length > 65535 {
			length = 65535
		}
		return []metadata.Entry{{TokenIndex: 0, Kind: metadata.KindLiteral, Value: uint16(length)}}

	default:
		return fallbackEntries()
	}
}

// RegisterTemplate adds or replaces a template pattern. Last write wins.
func (s *Service) RegisterTemplate(id uint16, pattern string) {
	s.library.Register(id, pattern)
}

// ListTemplates returns a snapshot of all registered templates.
func (s *Service) ListTemplates() map[uint16]string {
	return s.library.Snapshot()
}

// TemplateCount returns the number of registered templates.
func (s *Service) TemplateCount() int {
	return s.library.Count()
}

func fallbackEntries() []metadata.Entry {
	return []metadata.Entry{{TokenIndex: 0, Kind: metadata.KindFallback, Value: 0}}
}

func ratioOf(originalSize, compressedSize int) float64 {
	if compressedSize == 0 {
		return 1.0
	}
	return float64(originalSize) / float64(compressedSize)
}

func (s *Service) recordError(ctx context.Context, span trace.Span, operation, errType string, err error) {
	span.RecordError(err)
	s.errorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("error_type", errType),
		),
	)
}

// initMetrics initializes OpenTelemetry metrics
func (s *Service) initMetrics() error {
	var err error

	s.compressCounter, err = s.meter.Int64Counter(
		"aura.compress.operations_total",
		metric.WithDescription("Total number of compression operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create compress counter: %w", err)
	}

	s.compressDuration, err = s.meter.Float64Histogram(
		"aura.compress.duration_seconds",
		metric.WithDescription("Time spent on compression operations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005),
	)
	if err != nil {
		return fmt.Errorf("failed to create compress duration histogram: %w", err)
	}

	s.compressRatio, err = s.meter.Float64Histogram(
		"aura.compress.ratio",
		metric.WithDescription("Compression ratios achieved"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0.5, 1.0, 1.5, 2.0, 3.0, 5.0, 10.0, 20.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create compress ratio histogram: %w", err)
	}

	s.decompressCounter, err = s.meter.Int64Counter(
		"aura.decompress.operations_total",
		metric.WithDescription("Total number of decompression operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create decompress counter: %w", err)
	}

	s.errorCounter, err = s.meter.Int64Counter(
		"aura.errors_total",
		metric.WithDescription("Total number of codec errors"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create error counter: %w", err)
	}

	return nil
}
