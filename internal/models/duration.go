package models

import (
	"fmt"
	"strconv"
	"time"
)

// Seconds is a duration that serializes as a whole number of seconds, the
// unit the board's consumers work in.
type Seconds time.Duration

// NewSeconds wraps a duration, truncating to whole seconds.
func NewSeconds(d time.Duration) Seconds {
	return Seconds(d.Truncate(time.Second))
}

// Duration returns the underlying time.Duration.
func (s Seconds) Duration() time.Duration { return time.Duration(s) }

// MarshalJSON encodes the duration as an integer count of seconds.
func (s Seconds) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(time.Duration(s)/time.Second), 10), nil
}

// UnmarshalJSON decodes an integer count of seconds.
func (s *Seconds) UnmarshalJSON(b []byte) error {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("parse seconds: %w", err)
	}
	*s = Seconds(time.Duration(n) * time.Second)
	return nil
}

// FormatDuration renders a duration for display: "1h 5m", "2m", "45s".
// Sub-minute precision is dropped once minutes are shown.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + FormatDuration(-d)
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// FormatVariance renders a schedule variance with a +/- prefix, or
// "on time" for zero.
func FormatVariance(d time.Duration) string {
	if d == 0 {
		return "on time"
	}
	if d > 0 {
		return "+" + FormatDuration(d)
	}
	return FormatDuration(d)
}
