package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Unbounded is shown where an ETA cannot be computed.
const Unbounded = "∞"

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// ReadableBytes converts a byte count into the largest binary unit that keeps
// the value below 1024, always with two decimals. PB is the ceiling.
func ReadableBytes(size int64) string {
	if size < 0 {
		return "-" + ReadableBytes(-size)
	}
	value := float64(size)
	idx := 0
	for value >= 1024 && idx < len(byteUnits)-1 {
		value /= 1024
		idx++
	}
	return fmt.Sprintf("%.2f %s", value, byteUnits[idx])
}

// FormatDurationUS renders a microsecond duration using its dominant unit and
// at most one remainder component, e.g. "2d 3h", "4m 10s", "12 sec", "35 ms".
func FormatDurationUS(us int64) string {
	if us < 0 {
		us = 0
	}
	const (
		ms  = int64(1000)
		sec = 1000 * ms
		min = 60 * sec
		hr  = 60 * min
		day = 24 * hr
	)
	switch {
	case us >= day:
		return fmt.Sprintf("%dd %dh", us/day, (us/hr)%24)
	case us >= hr:
		return fmt.Sprintf("%dh %dm", us/hr, (us/min)%60)
	case us >= min:
		return fmt.Sprintf("%dm %ds", us/min, (us/sec)%60)
	case us >= sec:
		return fmt.Sprintf("%d sec", us/sec)
	case us >= ms:
		return fmt.Sprintf("%d ms", us/ms)
	default:
		return fmt.Sprintf("%d μs", us)
	}
}

// FormatDuration is FormatDurationUS for a time.Duration.
func FormatDuration(d time.Duration) string {
	return FormatDurationUS(d.Microseconds())
}

// ETA estimates the time left to move remaining bytes at speed bytes/s.
// ok is false when speed is not positive; callers render Unbounded then.
func ETA(remaining int64, speed float64) (eta time.Duration, ok bool) {
	if speed <= 0 {
		return 0, false
	}
	if remaining < 0 {
		remaining = 0
	}
	secs := float64(remaining) / speed
	if secs > math.MaxInt64/float64(time.Second) {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// FormatETA renders an ETA with FormatDuration, or Unbounded.
func FormatETA(remaining int64, speed float64) string {
	eta, ok := ETA(remaining, speed)
	if !ok {
		return Unbounded
	}
	return FormatDuration(eta)
}

// FormatClockETA renders an ETA as hh:mm:ss, or Unbounded.
func FormatClockETA(remaining int64, speed float64) string {
	eta, ok := ETA(remaining, speed)
	if !ok {
		return Unbounded
	}
	s := int64(eta / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// ProgressBar draws a fixed-width bar for fraction in [0, 1].
func ProgressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}

// Percent returns done/total as a fraction, zero when total is unknown.
func Percent(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total)
}
