package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignature_Empty(t *testing.T) {
	assert.Equal(t, uint32(0), Signature(nil))
	assert.Equal(t, uint32(0), Signature([]Entry{}))
}

func TestSignature_Deterministic(t *testing.T) {
	entries := []Entry{
		{TokenIndex: 0, Kind: KindTemplate, Value: 1},
		{TokenIndex: 1, Kind: KindLiteral, Value: 19},
	}

	assert.Equal(t, Signature(entries), Signature(entries))
}

func TestSignature_OrderSensitive(t *testing.T) {
	a := Entry{TokenIndex: 0, Kind: KindTemplate, Value: 7}
	b := Entry{TokenIndex: 1, Kind: KindLiteral, Value: 50}

	assert.NotEqual(t, Signature([]Entry{a, b}), Signature([]Entry{b, a}))
}

func TestSignature_SingleEntry(t *testing.T) {
	// Position 0 rotates by zero bits, so the signature is the raw hash.
	e := Entry{TokenIndex: 9, Kind: KindTemplate, Value: 12}
	want := uint32(KindTemplate)<<16 | uint32(12)

	assert.Equal(t, want, Signature([]Entry{e}))
}

func TestSignature_IgnoresTokenIndexAndFlags(t *testing.T) {
	a := []Entry{{TokenIndex: 0, Kind: KindTemplate, Value: 3, Flags: 0}}
	b := []Entry{{TokenIndex: 99, Kind: KindTemplate, Value: 3, Flags: 7}}

	assert.Equal(t, Signature(a), Signature(b))
}

func TestSignature_ValueSensitive(t *testing.T) {
	a := []Entry{{Kind: KindTemplate, Value: 3}}
	b := []Entry{{Kind: KindTemplate, Value: 4}}

	assert.NotEqual(t, Signature(a), Signature(b))
}
