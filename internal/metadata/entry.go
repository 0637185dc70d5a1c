package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Kind identifies how a region of the original text was encoded.
type Kind byte

const (
	// KindLiteral marks text carried verbatim; Value holds its length.
	KindLiteral Kind = 0x00
	// KindTemplate marks a template expansion; Value holds the template ID.
	KindTemplate Kind = 0x01
	// KindLZ77 marks a dictionary back-reference.
	KindLZ77 Kind = 0x02
	// KindSemantic marks a semantic dictionary match.
	KindSemantic Kind = 0x03
	// KindFallback marks a region the encoder gave up on.
	KindFallback Kind = 0x04
)

// EntrySize is the exact serialized size of one Entry in bytes.
const EntrySize = 6

var (
	// ErrEntrySize is returned when a serialized entry is not exactly 6 bytes.
	ErrEntrySize = errors.New("metadata: entry must be exactly 6 bytes")
	// ErrUnknownKind is returned when the kind byte is not a defined Kind.
	ErrUnknownKind = errors.New("metadata: unknown entry kind")
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindTemplate:
		return "template"
	case KindLZ77:
		return "lz77"
	case KindSemantic:
		return "semantic"
	case KindFallback:
		return "fallback"
	default:
		return fmt.Sprintf("kind(0x%02x)", byte(k))
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k <= KindFallback
}

// Entry describes how one region of the original text was encoded.
//
// TokenIndex is the position of the region in token order. Value is
// kind-dependent: template ID for KindTemplate, literal length for
// KindLiteral, match offset for the dictionary kinds. Flags is reserved
// and must be zero.
type Entry struct {
	TokenIndex uint16
	Kind       Kind
	Value      uint16
	Flags      byte
}

// MarshalBinary serializes the entry to its 6-byte wire form.
//
// The reserved flags byte is forced to zero regardless of the struct
// field, keeping the wire format forward-compatible.
func (e Entry) MarshalBinary() ([]byte, error) {
	b := make([]byte, EntrySize)
	binary.BigEndian.PutUint16(b[0:2], e.TokenIndex)
	b[2] = byte(e.Kind)
	binary.BigEndian.PutUint16(b[3:5], e.Value)
	b[5] = 0
	return b, nil
}

// UnmarshalEntry parses a single 6-byte entry.
func UnmarshalEntry(data []byte) (Entry, error) {
	if len(data) != EntrySize {
		return Entry{}, fmt.Errorf("%w: got %d", ErrEntrySize, len(data))
	}
	kind := Kind(data[2])
	if !kind.Valid() {
		return Entry{}, fmt.Errorf("%w: 0x%02x", ErrUnknownKind, data[2])
	}
	return Entry{
		TokenIndex: binary.BigEndian.Uint16(data[0:2]),
		Kind:       kind,
		Value:      binary.BigEndian.Uint16(data[3:5]),
		Flags:      data[5],
	}, nil
}

// MarshalEntries serializes a sequence of entries back to back.
func MarshalEntries(entries []Entry) ([]byte, error) {
	out := make([]byte, 0, len(entries)*EntrySize)
	for _, e := range entries {
		b, err := e.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// UnmarshalEntries parses a back-to-back sequence of 6-byte entries.
func UnmarshalEntries(data []byte) ([]Entry, error) {
	if len(data)%EntrySize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrEntrySize, len(data), EntrySize)
	}
	entries := make([]Entry, 0, len(data)/EntrySize)
	for off := 0; off < len(data); off += EntrySize {
		e, err := UnmarshalEntry(data[off : off+EntrySize])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", off/EntrySize, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
