// Package template manages the pattern library used by binary-semantic
// compression: built-in and registered patterns, slot formatting, and
// deterministic matching of free text back onto pattern IDs.
package template

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Library is a concurrency-safe registry of slot patterns keyed by ID.
//
// Matching iterates IDs in ascending order, so the lowest matching ID
// always wins regardless of registration order or map iteration. That
// keeps encoder output stable across processes, which the signature
// cache depends on.
type Library struct {
	mu       sync.RWMutex
	patterns map[uint16]string
	ids      []uint16 // sorted
}

// NewLibrary returns a library preloaded with the built-in pattern set.
func NewLibrary() *Library {
	l := &Library{
		patterns: make(map[uint16]string, len(builtinPatterns)),
	}
	for id, pattern := range builtinPatterns {
		l.patterns[id] = pattern
	}
	l.rebuildIDs()
	return l
}

// Register adds or replaces the pattern for id. Last write wins.
func (l *Library) Register(id uint16, pattern string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, existed := l.patterns[id]
	l.patterns[id] = pattern
	if !existed {
		i := sort.Search(len(l.ids), func(i int) bool { return l.ids[i] >= id })
		l.ids = append(l.ids, 0)
		copy(l.ids[i+1:], l.ids[i:])
		l.ids[i] = id
	}
}

// Pattern returns the pattern for id.
func (l *Library) Pattern(id uint16) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pattern, ok := l.patterns[id]
	return pattern, ok
}

// Count returns the number of registered patterns.
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.patterns)
}

// Snapshot returns a copy of the full pattern map.
func (l *Library) Snapshot() map[uint16]string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[uint16]string, len(l.patterns))
	for id, pattern := range l.patterns {
		out[id] = pattern
	}
	return out
}

// Format expands the pattern for id with the given slot values.
//
// Placeholders are replaced in increasing slot order; placeholders
// beyond the provided slots stay in the output untouched. Returns
// ok=false when the id is not registered.
func (l *Library) Format(id uint16, slots []string) (string, bool) {
	pattern, ok := l.Pattern(id)
	if !ok {
		return "", false
	}

	result := pattern
	for i, slot := range slots {
		result = strings.ReplaceAll(result, fmt.Sprintf("{%d}", i), slot)
	}
	return result, true
}

// Match finds the lowest-ID pattern that exactly produces text and
// returns the extracted slot values. ok is false when nothing matches.
func (l *Library) Match(text string) (uint16, []string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, id := range l.ids {
		if slots, ok := extractSlots(l.patterns[id], text); ok {
			return id, slots, true
		}
	}
	return 0, nil, false
}

func (l *Library) rebuildIDs() {
	l.ids = l.ids[:0]
	for id := range l.patterns {
		l.ids = append(l.ids, id)
	}
	sort.Slice(l.ids, func(i, j int) bool { return l.ids[i] < l.ids[j] })
}

// extractSlots aligns text against pattern and returns the slot values.
//
// The walk is greedy and never backtracks: the literal prefix must
// anchor at position zero, each following literal binds to its first
// occurrence after the cursor, and the final cursor must land exactly
// on the end of text. Patterns whose slot values themselves contain the
// next literal will therefore fail to rematch; that trade keeps
// matching linear and deterministic.
func extractSlots(pattern, text string) ([]string, bool) {
	slots := []string{}
	pos := 0

	parts := strings.Split(pattern, "{")
	prefix := parts[0]
	if !strings.HasPrefix(text, prefix) {
		return nil, false
	}
	pos += len(prefix)

	for _, part := range parts[1:] {
		end := strings.IndexByte(part, '}')
		if end < 0 {
			// Unterminated placeholder: treat the rest as literal.
			if !strings.HasPrefix(text[pos:], "{"+part) {
				return nil, false
			}
			pos += len(part) + 1
			continue
		}

		literal := part[end+1:]
		if literal == "" {
			// Slot runs to the end of the text.
			slots = append(slots, text[pos:])
			pos = len(text)
			continue
		}

		idx := strings.Index(text[pos:], literal)
		if idx < 0 {
			return nil, false
		}
		slots = append(slots, text[pos:pos+idx])
		pos += idx + len(literal)
	}

	if pos != len(text) {
		return nil, false
	}
	return slots, true
}
