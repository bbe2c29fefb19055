package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// compactDurationRegex matches the remote's compact duration notation
// ("PT#H#M#S", any subset of the three fields present).
var compactDurationRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// clockRegex matches an already-formatted "MM:SS" or "HH:MM:SS" string.
var clockRegex = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d{1,2}):(\d{2})$`)

// ParseDuration converts either the compact notation or an already-formatted
// clock string into a duration. Malformed input yields the zero sentinel,
// not an error: an unknown duration marks the record for filtering, it is
// never fatal.
func ParseDuration(s string) time.Duration {
	if m := compactDurationRegex.FindStringSubmatch(s); m != nil {
		hours := atoiOrZero(m[1])
		minutes := atoiOrZero(m[2])
		seconds := atoiOrZero(m[3])
		return time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(seconds)*time.Second
	}

	if m := clockRegex.FindStringSubmatch(s); m != nil {
		hours := atoiOrZero(m[1])
		minutes := atoiOrZero(m[2])
		seconds := atoiOrZero(m[3])
		return time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(seconds)*time.Second
	}

	return 0
}

// FormatClock renders a duration as "MM:SS", or "HH:MM:SS" once it reaches
// an hour, always zero-padded to two digits per field.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// ValidDuration reports whether d is usable. A zero duration means the
// detail call had no usable entry for the id; such records are dropped
// before they reach the cache.
func ValidDuration(d time.Duration) bool {
	return d > 0
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
