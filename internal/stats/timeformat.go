package stats

import (
	"fmt"
	"math"
	"strings"
)

// FormatDHMS renders seconds as "1d 2h 3m 4s", omitting leading zero
// components. Negative or NaN input renders as "0s"; partial seconds
// round to the nearest whole second.
func FormatDHMS(seconds float64) string {
	if math.IsNaN(seconds) || seconds <= 0 {
		return "0s"
	}
	total := int64(math.Round(seconds))

	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if hours > 0 || days > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if minutes > 0 || hours > 0 || days > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	fmt.Fprintf(&b, "%ds", secs)
	return b.String()
}
