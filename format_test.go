package cartolive

import (
	"testing"
	"time"
)

func TestFormatMilliseconds(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0s"},
		{999, "0s"},
		{9_000, "9s"},
		{65_000, "1m 5s"},
		{600_000, "10m 0s"},
		{3_600_000, "1h 0m 0s"},
		{3_661_000, "1h 1m 1s"},
		{90_061_000, "25h 1m 1s"},
		{-5_000, "0s"},
	}

	for _, tt := range tests {
		if got := FormatMilliseconds(tt.ms); got != tt.want {
			t.Errorf("FormatMilliseconds(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(61 * time.Second); got != "1m 1s" {
		t.Fatalf("unexpected format %q", got)
	}
}
