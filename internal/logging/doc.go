// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug) for wire-format dumps
//   - Dual output (stdout + OpenTelemetry)
//   - Automatic context field injection (trace_id, conversation, request)
//   - Defense-in-depth redaction of secrets and message text
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, otelProvider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx := logging.WithConversationID(ctx, "conv-9f2")
//	logger.Info(ctx, "response compressed", zap.Float64("ratio", r))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2026-07-14T10:15:30Z",
//	  "level": "info",
//	  "msg": "response compressed",
//	  "trace_id": "abc123",
//	  "conversation.id": "conv-9f2",
//	  "ratio": 3.4
//	}
//
// # Redaction
//
// Sensitive data is redacted at multiple layers:
//  1. Domain primitives (config.Secret type)
//  2. Encoder-level field name filtering
//  3. Encoder-level pattern matching
//
// Chat text is treated as sensitive: fields named "text", "original_text"
// and "decompressed_text" are redacted by default so message content never
// lands in logs. Set logging.include_text to lift that for local debugging.
//
// Use helpers for manual redaction:
//
//	logger.Info(ctx, "auth received",
//	    logging.RedactedString("authorization", authHeader))
//
// # Sampling
//
// Level-aware sampling prevents log floods:
//   - Trace: first 1 per second, drop rest
//   - Debug: first 10 per second, drop rest
//   - Info: first 100, then 1 every 10
//   - Warn: first 100, then 1 every 100
//   - Error+: never sampled
//
// Disable for debugging:
//
//	cfg.Sampling.Enabled = false
//
// # Testing
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
//	tl.AssertNoSecrets(t)
//
// # Concurrency Safety
//
// Logger is safe for concurrent use. Child loggers (With, Named) are
// independent and do not affect parent or siblings.
package logging
