package metadata

// Intent is a coarse classification of a response derived from its
// metadata alone.
type Intent string

const (
	IntentUnknown     Intent = "unknown"
	IntentAffirmative Intent = "affirmative"
	IntentApology     Intent = "apology"
	IntentThinking    Intent = "thinking"
	IntentQuestion    Intent = "question"
	IntentCustom      Intent = "custom"
	IntentComplex     Intent = "complex"
)

// Per-entry payload cost estimates used by PredictRatio, plus the fixed
// envelope overhead. A literal contributes its own length instead.
const (
	costTemplate = 4
	costLZ77     = 5
	costSemantic = 8

	envelopeOverhead = 16
)

// ClassifyIntent labels a response by inspecting the leading metadata
// entry. Template expansions map through the built-in template ranges
// (capability refusals, apologies, factual answers); literal responses
// are custom content; fallback means the encoder punted, which usually
// indicates long free-form text.
func ClassifyIntent(entries []Entry) Intent {
	if len(entries) == 0 {
		return IntentUnknown
	}

	first := entries[0]
	switch first.Kind {
	case KindTemplate:
		switch first.Value {
		case 1, 3, 5, 7:
			return IntentAffirmative
		case 2, 4:
			return IntentApology
		case 12:
			return IntentThinking
		case 10, 13:
			return IntentQuestion
		default:
			return IntentUnknown
		}
	case KindLiteral:
		return IntentCustom
	case KindFallback:
		return IntentComplex
	default:
		return IntentUnknown
	}
}

// PredictRatio estimates the compression ratio a payload will achieve
// from its metadata entries, without touching the payload itself.
//
// Costs are summed per entry kind; a fallback entry overrides the sum
// with originalSize/1.1 and ends the walk, since everything after it is
// carried nearly verbatim. The 16-byte envelope and 6 bytes per entry
// are charged on top. Returns 1.0 when there is nothing to estimate.
func PredictRatio(entries []Entry, originalSize int) float64 {
	if len(entries) == 0 || originalSize == 0 {
		return 1.0
	}

	estimated := 0
	for _, e := range entries {
		switch e.Kind {
		case KindTemplate:
			estimated += costTemplate
		case KindLZ77:
			estimated += costLZ77
		case KindSemantic:
			estimated += costSemantic
		case KindLiteral:
			estimated += int(e.Value)
		case KindFallback:
			estimated = int(float64(originalSize) / 1.1)
		}
		if e.Kind == KindFallback {
			break
		}
	}

	total := envelopeOverhead + EntrySize*len(entries) + estimated
	return float64(originalSize) / float64(total)
}
