package scheduling

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatDuration renders a span as a compact label such as "2d 4h 5m".
// Zero-valued components are omitted, except minutes, which are always
// shown when no larger unit is present so the result is never empty.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}

	total := int(d.Seconds())
	days := total / (24 * 3600)
	total %= 24 * 3600
	hours := total / 3600
	total %= 3600
	minutes := total / 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	return strings.Join(parts, " ")
}

// DecimalHours converts a span to hours rounded to two decimal places,
// the format maintenance reports use for actual time spent.
func DecimalHours(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return math.Round(d.Seconds()/3600*100) / 100
}
