package aura

import "time"

// DefaultMaxTextLength bounds compressor input (prevents DoS via
// oversized request bodies).
const DefaultMaxTextLength = 1 << 20 // 1MB

// CompressionMetadata describes a single compression operation.
type CompressionMetadata struct {
	// Original text size in bytes
	OriginalSize int `json:"original_size"`

	// Payload size in bytes, method byte included
	CompressedSize int `json:"compressed_size"`

	// Original/compressed; 1.0 when the payload is empty
	Ratio float64 `json:"ratio"`

	// Protocol method name ("binary_semantic", "auralite", ...)
	Method string `json:"method"`

	// Template IDs referenced by the payload
	TemplateIDs []uint16 `json:"template_ids,omitempty"`

	// Unix seconds at encode time
	Timestamp int64 `json:"timestamp"`
}

// DecompressionMetadata describes a single decompression operation.
type DecompressionMetadata struct {
	Method      string   `json:"method"`
	TemplateIDs []uint16 `json:"template_ids,omitempty"`
}

// Result is the outcome of a compression operation.
type Result struct {
	// Wire payload, method byte first
	Payload []byte

	// Compression metadata
	Metadata CompressionMetadata

	// Processing time
	ProcessingTime time.Duration
}

// DecompressResult is the outcome of a decompression operation.
type DecompressResult struct {
	// Recovered text
	Text string

	// Decompression metadata
	Metadata DecompressionMetadata

	// Processing time
	ProcessingTime time.Duration
}

// Config holds configuration for the compression service.
type Config struct {
	// Path to the persisted template store; empty disables loading
	StorePath string

	// Maximum accepted text length in bytes
	MaxTextLength int
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		MaxTextLength: DefaultMaxTextLength,
	}
}
