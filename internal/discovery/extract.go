package discovery

import (
	"fmt"
	"strings"
)

// DefaultMaxSlots is the most slots an extracted pattern may carry.
// Patterns with more variable positions than this compress poorly and
// match too loosely.
const DefaultMaxSlots = 3

// PatternCandidate is a parameterized pattern derived from a cluster,
// ready for safety screening and promotion.
type PatternCandidate struct {
	Pattern   string   `json:"pattern"`
	SlotCount int      `json:"slot_count"`
	Support   int      `json:"support"`
	Examples  []string `json:"examples,omitempty"`
}

// Extractor aligns cluster members into a single pattern, marking the
// token positions where members diverge as {i} slots.
type Extractor struct {
	maxSlots int
}

// NewExtractor creates an extractor. A non-positive maxSlots selects
// the default.
func NewExtractor(maxSlots int) *Extractor {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	return &Extractor{maxSlots: maxSlots}
}

// Extract derives a pattern from a cluster of similar candidates. The
// first member is the frame; only members with the same token count
// participate in the alignment. Extraction fails when fewer than two
// members align, when the divergent positions exceed the slot limit,
// or when no fixed structure remains.
func (e *Extractor) Extract(cluster []Candidate) (PatternCandidate, bool) {
	if len(cluster) == 0 {
		return PatternCandidate{}, false
	}

	frame := strings.Fields(cluster[0].Text)

	aligned := make([][]string, 0, len(cluster))
	support := 0
	examples := make([]string, 0, 3)
	for _, member := range cluster {
		tokens := strings.Fields(member.Text)
		if len(tokens) != len(frame) {
			continue
		}
		aligned = append(aligned, tokens)
		support += member.Count
		if len(examples) < 3 {
			examples = append(examples, member.Text)
		}
	}

	if len(aligned) < 2 {
		return PatternCandidate{}, false
	}

	variable := make([]bool, len(frame))
	slotCount := 0
	for i := range frame {
		for _, tokens := range aligned[1:] {
			if tokens[i] != frame[i] {
				variable[i] = true
				slotCount++
				break
			}
		}
	}

	if slotCount > e.maxSlots || slotCount >= len(frame) {
		return PatternCandidate{}, false
	}

	out := make([]string, len(frame))
	slot := 0
	for i, token := range frame {
		if variable[i] {
			out[i] = fmt.Sprintf("{%d}", slot)
			slot++
		} else {
			out[i] = token
		}
	}

	return PatternCandidate{
		Pattern:   strings.Join(out, " "),
		SlotCount: slotCount,
		Support:   support,
		Examples:  examples,
	}, true
}
