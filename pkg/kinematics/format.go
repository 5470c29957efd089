package kinematics

import (
	"fmt"
	"math"
)

// FormatDuration renders an estimate in seconds as "1h 2m 3s", dropping
// leading zero-valued components. An exactly zero duration renders as a
// placeholder dash.
func FormatDuration(seconds float64) string {
	if seconds == 0 {
		return "-"
	}

	total := int(math.Round(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
