package timecode

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalid marks every timecode parse or range failure.
var ErrInvalid = errors.New("invalid timecode")

// Error describes why a timecode value was rejected.
type Error struct {
	Input  string
	Reason string
}

func (e *Error) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("timecode: %s", e.Reason)
	}
	return fmt.Sprintf("timecode %q: %s", e.Input, e.Reason)
}

func (e *Error) Unwrap() error { return ErrInvalid }

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?P<hours>\d{1,2}):(?P<minutes>\d{1,2}):(?P<seconds>\d{1,2})(?:\.(?P<millis>\d{1,3}))?$`),
	regexp.MustCompile(`^(?P<minutes>\d{1,2}):(?P<seconds>\d{1,2})(?:\.(?P<millis>\d{1,3}))?$`),
	regexp.MustCompile(`^(?P<seconds>\d{1,2})(?:\.(?P<millis>\d{1,3}))?$`),
}

// Parse converts a timecode string into seconds.
func Parse(text string) (float64, error) {
	value := strings.TrimSpace(text)
	if value == "" {
		return 0, &Error{Reason: "empty value"}
	}

	for _, re := range patterns {
		match := re.FindStringSubmatch(value)
		if match == nil {
			continue
		}
		fields := make(map[string]string, 4)
		for i, name := range re.SubexpNames() {
			if name != "" {
				fields[name] = match[i]
			}
		}
		hours := atoi(fields["hours"])
		minutes := atoi(fields["minutes"])
		seconds := atoi(fields["seconds"])
		millis := 0
		if raw := fields["millis"]; raw != "" {
			// Fractions are right-padded so ".5" reads as 500ms.
			millis = atoi((raw + "00")[:3])
		}

		if minutes >= 60 {
			return 0, &Error{Input: value, Reason: fmt.Sprintf("minutes %d must be below 60", minutes)}
		}
		if seconds >= 60 {
			return 0, &Error{Input: value, Reason: fmt.Sprintf("seconds %d must be below 60", seconds)}
		}
		if millis >= 1000 {
			return 0, &Error{Input: value, Reason: fmt.Sprintf("milliseconds %d must be below 1000", millis)}
		}

		totalMillis := int64(hours)*3_600_000 + int64(minutes)*60_000 + int64(seconds)*1_000 + int64(millis)
		return float64(totalMillis) / 1000, nil
	}
	return 0, &Error{Input: value, Reason: "unrecognized format"}
}

// Format renders seconds as HH:MM:SS, appending .mmm when withMillis is set
// and the value carries a non-zero millisecond part.
func Format(seconds float64, withMillis bool) (string, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "", &Error{Reason: fmt.Sprintf("non-finite value %v", seconds)}
	}
	if seconds < 0 {
		return "", &Error{Reason: fmt.Sprintf("negative value %v", seconds)}
	}

	totalMillis := int64(math.Round(seconds * 1000))
	if !withMillis {
		totalMillis = int64(seconds) * 1000
	}
	hours := totalMillis / 3_600_000
	totalMillis %= 3_600_000
	minutes := totalMillis / 60_000
	totalMillis %= 60_000
	secs := totalMillis / 1_000
	millis := totalMillis % 1_000

	if withMillis && millis > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis), nil
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs), nil
}

// ValidateRange checks that end > start >= 0 and, when max is provided, that
// end does not exceed it.
func ValidateRange(start, end float64, max *float64) error {
	if start < 0 {
		return &Error{Reason: fmt.Sprintf("start %.3fs must not be negative", start)}
	}
	if end < 0 {
		return &Error{Reason: fmt.Sprintf("end %.3fs must not be negative", end)}
	}
	if end <= start {
		return &Error{Reason: fmt.Sprintf("end %.3fs must be greater than start %.3fs", end, start)}
	}
	if max != nil && end > *max {
		return &Error{Reason: fmt.Sprintf("end %.3fs exceeds maximum %.3fs", end, *max)}
	}
	return nil
}

// FormatDuration renders a human readable duration such as "1h 23m 45s".
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		return "0s"
	}
	whole := int64(seconds)
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}
	return strings.Join(parts, " ")
}

// SnapToKeyframe returns the keyframe closest to t when it lies within
// tolerance seconds, otherwise t unchanged.
func SnapToKeyframe(t float64, keyframes []float64, tolerance float64) float64 {
	if len(keyframes) == 0 {
		return t
	}
	closest := keyframes[0]
	for _, k := range keyframes[1:] {
		if math.Abs(k-t) < math.Abs(closest-t) {
			closest = k
		}
	}
	if math.Abs(closest-t) <= tolerance {
		return closest
	}
	return t
}

func atoi(value string) int {
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
