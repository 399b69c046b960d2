package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatAccel formats an acceleration reading as a signed value with two
// decimals and a fixed width, so gauges don't jitter as the sign changes.
// Example: 9.8 → " +9.80", -0.25 → " -0.25".
func FormatAccel(v float64) string {
	return fmt.Sprintf("%+6.2f", v)
}

// FormatRate formats a samples/sec rate with comma-separated thousands and one decimal place.
// Example: 1204.3 → "1,204.3 /s", 0 → "0 /s".
// Negative values return "---".
func FormatRate(perSec float64) string {
	if perSec < 0 {
		return "---"
	}
	if perSec == 0 {
		return "0 /s"
	}
	return formatCommaFloat(perSec) + " /s"
}

// FormatAge formats how long ago something happened, compactly.
// < 1s → "120ms", < 1m → "4.2s", otherwise "3m05s".
func FormatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "---"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		m := int(d.Minutes())
		s := int(d.Seconds()) - m*60
		return fmt.Sprintf("%dm%02ds", m, s)
	}
}

// FormatSeconds formats an axis tick in seconds, dropping decimals once the
// value is large enough that they would only add noise.
func FormatSeconds(s float64) string {
	if s >= 100 || s <= -100 {
		return fmt.Sprintf("%.0f", s)
	}
	return fmt.Sprintf("%.1f", s)
}

// FormatNumber formats an integer with locale-style comma separators.
// Example: 12345678 → "12,345,678".
// Uses strconv.FormatInt directly to avoid abs64 overflow for math.MinInt64.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		// s starts with "-"; strip it, insert commas, restore sign.
		return "-" + insertCommas(s[1:])
	}
	return insertCommas(s)
}

// FormatPercent formats a percentage with no decimals, right-aligned to 4 columns.
// Example: 34.6 → " 35%"; halves round to even, so 34.5 → " 34%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%3.0f%%", p)
}

// formatCommaFloat formats a float with comma-separated thousands and one decimal place.
func formatCommaFloat(f float64) string {
	formatted := fmt.Sprintf("%.1f", f)
	// Strip leading minus before inserting commas, then restore it
	sign := ""
	if len(formatted) > 0 && formatted[0] == '-' {
		sign = "-"
		formatted = formatted[1:]
	}
	parts := strings.SplitN(formatted, ".", 2)
	intPart := insertCommas(parts[0])
	if len(parts) == 2 {
		return sign + intPart + "." + parts[1]
	}
	return sign + intPart
}

// insertCommas inserts comma separators into a digit string every 3 digits from the right.
func insertCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var buf strings.Builder
	lead := n % 3
	if lead > 0 {
		buf.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(s[i : i+3])
	}
	return buf.String()
}
