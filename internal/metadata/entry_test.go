package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_MarshalBinary(t *testing.T) {
	e := Entry{TokenIndex: 0x0102, Kind: KindTemplate, Value: 0x0304}

	b, err := e.MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, []byte{0x01, 0x02, 0x01, 0x03, 0x04, 0x00}, b)
	assert.Len(t, b, EntrySize)
}

func TestEntry_MarshalBinary_FlagsForcedZero(t *testing.T) {
	e := Entry{TokenIndex: 1, Kind: KindLiteral, Value: 2, Flags: 0xFF}

	b, err := e.MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, byte(0x00), b[5])
}

func TestUnmarshalEntry_RoundTrip(t *testing.T) {
	original := Entry{TokenIndex: 42, Kind: KindSemantic, Value: 65535}

	b, err := original.MarshalBinary()
	require.NoError(t, err)

	decoded, err := UnmarshalEntry(b)
	require.NoError(t, err)

	assert.Equal(t, original.TokenIndex, decoded.TokenIndex)
	assert.Equal(t, original.Kind, decoded.Kind)
	assert.Equal(t, original.Value, decoded.Value)
	assert.Equal(t, byte(0), decoded.Flags)
}

func TestUnmarshalEntry_WrongLength(t *testing.T) {
	_, err := UnmarshalEntry([]byte{0x00, 0x01, 0x02})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntrySize)

	_, err = UnmarshalEntry(make([]byte, 7))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntrySize)
}

func TestUnmarshalEntry_UnknownKind(t *testing.T) {
	_, err := UnmarshalEntry([]byte{0x00, 0x00, 0x05, 0x00, 0x00, 0x00})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = UnmarshalEntry([]byte{0x00, 0x00, 0xFF, 0x00, 0x00, 0x00})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestUnmarshalEntries_Sequence(t *testing.T) {
	entries := []Entry{
		{TokenIndex: 0, Kind: KindTemplate, Value: 12},
		{TokenIndex: 1, Kind: KindLiteral, Value: 30},
		{TokenIndex: 2, Kind: KindFallback, Value: 0},
	}

	b, err := MarshalEntries(entries)
	require.NoError(t, err)
	require.Len(t, b, 3*EntrySize)

	decoded, err := UnmarshalEntries(b)
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)
}

func TestUnmarshalEntries_TruncatedSequence(t *testing.T) {
	_, err := UnmarshalEntries(make([]byte, EntrySize+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntrySize)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "literal", KindLiteral.String())
	assert.Equal(t, "template", KindTemplate.String())
	assert.Equal(t, "lz77", KindLZ77.String())
	assert.Equal(t, "semantic", KindSemantic.String())
	assert.Equal(t, "fallback", KindFallback.String())
	assert.Equal(t, "kind(0x07)", Kind(0x07).String())
}
