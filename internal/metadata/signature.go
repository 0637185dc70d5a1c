package metadata

import "math/bits"

// Signature computes an order-sensitive 32-bit fingerprint of an entry
// sequence. Conversation caches key on it, so two responses built from
// the same template sequence in the same order collide on purpose while
// reorderings do not.
//
// Each entry hashes to kind<<16|value, is rotated left by its position
// mod 32, and XOR-folds into the accumulator. Token indexes and flags do
// not participate; the fingerprint tracks structure, not offsets.
func Signature(entries []Entry) uint32 {
	var acc uint32
	for i, e := range entries {
		h := uint32(e.Kind)<<16 | uint32(e.Value)
		acc ^= bits.RotateLeft32(h, i%32)
	}
	return acc
}
