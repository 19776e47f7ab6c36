package logger

import (
	"strings"
	"time"
)

// RoundMS rounds a duration to whole milliseconds so log lines stay compact.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values for preview logging and
// reports whether anything was left out.
func SummarizeStrings(values []string, limit int) (string, bool) {
	switch {
	case limit <= 0:
		return "", len(values) > 0
	case len(values) > limit:
		return strings.Join(values[:limit], ", "), true
	default:
		return strings.Join(values, ", "), false
	}
}
