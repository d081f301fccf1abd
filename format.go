package cartolive

import (
	"fmt"
	"time"
)

// FormatMilliseconds renders a duration as "1h 2m 3s", dropping leading zero units.
func FormatMilliseconds(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hrs := ms / int64(time.Hour/time.Millisecond)
	min := ms / int64(time.Minute/time.Millisecond) % 60
	sec := ms / int64(time.Second/time.Millisecond) % 60

	if hrs > 0 {
		return fmt.Sprintf("%dh %dm %ds", hrs, min, sec)
	} else if min > 0 {
		return fmt.Sprintf("%dm %ds", min, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func FormatDuration(d time.Duration) string {
	return FormatMilliseconds(d.Milliseconds())
}
