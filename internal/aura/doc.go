// Package aura implements adaptive compression for AI-generated chat
// responses.
//
// AI responses are heavily templated: refusals, apologies, and factual
// answers repeat the same sentence shapes with different fillers. The
// package exploits that by encoding a response as a template ID plus its
// slot values when a known pattern matches, and falling back to a length
// prefixed literal when none does. Callers get byte-exact round trips in
// both cases.
//
// # Methods
//
// Every payload starts with a single method byte:
//
//	0x00 binary_semantic  template ID + slot values
//	0x01 auralite         length-prefixed literal text
//	0x02 brio             reserved
//	0x03 aura_lite        reserved (v2 literal framing)
//	0xFF uncompressed     raw passthrough
//
// Reserved methods are recognized but never emitted; decompressing them
// fails. Any other leading byte fails with UnknownMethodError.
//
// # Wire formats
//
// All multi-byte integers are big-endian.
//
//	binary_semantic: [0x00][template_id:1][slot_count:1] then per slot [len:2][UTF-8]
//	auralite:        [0x01][len:4][UTF-8]
//	uncompressed:    [0xFF][raw UTF-8]
//
// Slot counts and lengths are exact; truncated or over-long payloads are
// decode errors. Template IDs and slot counts above 255 cannot be
// represented and are rejected at encode time with InvalidPayloadError
// rather than silently truncated.
//
// Note that auralite is not free: its 5-byte header means the payload is
// always 5 bytes larger than the original text. Callers that need a
// strict never-bigger guarantee should compare sizes and use the
// uncompressed framing.
//
// # Observability
//
// The service exports OpenTelemetry metrics and traces:
//   - aura.compress.operations_total (counter): compressions by method
//   - aura.compress.duration_seconds (histogram): compression latency
//   - aura.compress.ratio (histogram): achieved ratio distribution
//   - aura.decompress.operations_total (counter): decompressions by method
//   - aura.errors_total (counter): failures by operation and error type
//
// # Usage
//
//	svc, err := aura.NewService(aura.DefaultConfig(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := svc.Compress(ctx, "I cannot browse the internet.", nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s: %d -> %d bytes (%.1fx)\n",
//	    result.Metadata.Method,
//	    result.Metadata.OriginalSize,
//	    result.Metadata.CompressedSize,
//	    result.Metadata.Ratio)
package aura
