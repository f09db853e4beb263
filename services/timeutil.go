package services

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimeOfDay converts an "HH:MM" or "HH:MM:SS" time-of-day string to
// minutes since midnight. Seconds are accepted for Postgres TIME
// round-trips but ignored; sessions are minute-granular.
func ParseTimeOfDay(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("time value cannot be empty")
	}

	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time format %q", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid second in %q", value)
		}
	}

	return hour*60 + minute, nil
}

// FormatTimeOfDay renders minutes since midnight as "HH:MM:SS".
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60)
}

// Overlaps reports whether two half-open intervals on the same day
// intersect. Touching endpoints (one ending exactly when the other
// starts) do not overlap.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

// overlapWindow returns the intersection of two overlapping intervals.
func overlapWindow(startA, endA, startB, endB int) (int, int) {
	start := startA
	if startB > start {
		start = startB
	}
	end := endA
	if endB < end {
		end = endB
	}
	return start, end
}
