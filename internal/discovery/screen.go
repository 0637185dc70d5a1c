package discovery

import (
	"regexp"
	"strings"
)

// DefaultMinLiteral is the minimum number of literal (non-slot)
// characters a pattern must retain to be worth a template ID.
const DefaultMinLiteral = 12

// screenRule pairs a compiled regex with the rejection reason it
// reports. Rules are evaluated in order; the first match rejects.
type screenRule struct {
	regex  *regexp.Regexp
	reason string
}

// slotPlaceholder matches {0}-style slot markers when measuring the
// literal content of a pattern.
var slotPlaceholder = regexp.MustCompile(`\{\d+\}`)

// Screener rejects pattern candidates that look like credentials,
// personal data, or content too thin to template. Thread-safe: all
// patterns are compiled at construction time.
type Screener struct {
	minLiteral int
	rules      []screenRule
}

// NewScreener creates a screener with built-in rules. A non-positive
// minLiteral selects the default.
func NewScreener(minLiteral int) *Screener {
	if minLiteral <= 0 {
		minLiteral = DefaultMinLiteral
	}
	return &Screener{
		minLiteral: minLiteral,
		rules:      buildScreenRules(),
	}
}

// buildScreenRules returns ordered rejection rules. More specific
// patterns come first so the reported reason is the most useful one.
func buildScreenRules() []screenRule {
	return []screenRule{
		{
			regex:  regexp.MustCompile(`(?i)\b(?:api[_-]?key|secret|token|password|credential|bearer|private[_-]?key)\b`),
			reason: "secret_keyword",
		},
		{
			regex:  regexp.MustCompile(`(?i)\b[a-z_]*(?:key|token)\s*[=:]`),
			reason: "secret_assignment",
		},
		{
			regex:  regexp.MustCompile(`\b[0-9a-fA-F]{32,}\b`),
			reason: "hex_run",
		},
		{
			regex:  regexp.MustCompile(`[A-Za-z0-9+/]{40,}={0,2}`),
			reason: "base64_run",
		},
		{
			regex:  regexp.MustCompile(`\d{9,}`),
			reason: "digit_run",
		},
	}
}

// Screen checks a candidate against the rejection rules and the
// literal-content floor. It returns true when the candidate is safe to
// promote, or false with the reason for rejection.
func (s *Screener) Screen(candidate PatternCandidate) (bool, string) {
	literal := strings.TrimSpace(slotPlaceholder.ReplaceAllString(candidate.Pattern, ""))
	if len(literal) < s.minLiteral {
		return false, "insufficient_literal"
	}

	for _, rule := range s.rules {
		if rule.regex.MatchString(candidate.Pattern) {
			return false, rule.reason
		}
		for _, example := range candidate.Examples {
			if rule.regex.MatchString(example) {
				return false, rule.reason
			}
		}
	}

	return true, ""
}
