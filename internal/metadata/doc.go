// Package metadata implements the compression metadata side-channel.
//
// Every compressed response carries a sequence of fixed-size entries
// describing how each region of the original text was encoded (template
// expansion, literal passthrough, dictionary match, semantic match, or
// fallback). The entries travel out of band from the payload, so routing
// and analytics layers can classify traffic without decompressing it.
//
// # Wire format
//
// Each entry serializes to exactly 6 bytes, big-endian:
//
//	[token_index:2][kind:1][value:2][flags:1]
//
// The flags byte is reserved and always zero on encode. Deserialization
// rejects any input that is not exactly 6 bytes or whose kind byte is
// unknown.
//
// # Derived analytics
//
// Three pure functions operate on entry sequences:
//   - Signature: order-sensitive 32-bit fingerprint used as a cache key
//   - ClassifyIntent: coarse intent label from the leading entry
//   - PredictRatio: compression ratio estimate without decompressing
//
// All three are deterministic and allocation-light, so they are safe on
// hot paths such as per-message cache lookups.
package metadata
