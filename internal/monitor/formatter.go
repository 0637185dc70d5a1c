package monitor

import "fmt"

// FormatRate formats message throughput as "X.X msg/s"
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f msg/s", rate)
}

// FormatPercent formats a ratio (0-1) as percentage
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatSignature renders a pattern signature as fixed-width hex
func FormatSignature(sig uint32) string {
	return fmt.Sprintf("0x%08x", sig)
}

// FormatCount abbreviates large counts as "950", "1.2k" or "3.4M"
func FormatCount(n uint64) string {
	switch {
	case n >= 1000000:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	case n >= 1000:
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
