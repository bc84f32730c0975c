// Package resultvalue parses, validates and formats typed-in results.
//
// Time-based events accept "SS.ss", "MM:SS.ss" or "HH:MM:SS.ss"; points-based
// events accept a non-negative number. Parsing and validation are strict and
// fail with a *ValueError; FormatTime is the one lenient entry point and
// returns its input unchanged when it cannot parse it.
package resultvalue

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	maxTimeSegments  = 3
	centiseconds     = 100

	// MaxTimeSeconds is the largest time accepted: the hour count fits an
	// int32 and hundredths stay exact in a float64.
	MaxTimeSeconds = float64(math.MaxInt32) * secondsPerHour
)

// segmentPattern is one unsigned decimal time segment, e.g. "01", "23.45", ".5".
var segmentPattern = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// segmentUnits lists positional units for 1, 2 and 3 segments.
var segmentUnits = [maxTimeSegments][]float64{
	{1},
	{secondsPerMinute, 1},
	{secondsPerHour, secondsPerMinute, 1},
}

// ParseTimeToSeconds converts a colon-delimited time into seconds. The
// leftmost segment is the largest unit.
func ParseTimeToSeconds(input string) (float64, error) {
	s := strings.TrimSpace(input)
	parts := strings.Split(s, ":")
	if s == "" || len(parts) > maxTimeSegments {
		return 0, newError(ErrInvalidFormat, input, msgInvalidFormat)
	}

	units := segmentUnits[len(parts)-1]
	var total float64
	for i, part := range parts {
		if !segmentPattern.MatchString(part) {
			return 0, newError(ErrInvalidFormat, input, msgInvalidFormat)
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || math.IsInf(v, 0) {
			return 0, newError(ErrInvalidFormat, input, msgInvalidFormat)
		}
		total += v * units[i]
	}
	if math.IsNaN(total) || math.IsInf(total, 0) || total > MaxTimeSeconds {
		return 0, newError(ErrInvalidFormat, input, msgInvalidFormat)
	}
	return total, nil
}

// FormatSeconds renders seconds as "0:00:SS.ss", "0:MM:SS.ss" or
// "H:MM:SS.ss" depending on magnitude. The value is rounded to hundredths
// before the magnitude is judged so 59.999 renders as "0:01:00.00".
// Negative, non-finite and out-of-range values render as "-".
func FormatSeconds(totalSeconds float64) string {
	if math.IsNaN(totalSeconds) || totalSeconds < 0 || totalSeconds > MaxTimeSeconds {
		return "-"
	}
	total := math.Round(totalSeconds*centiseconds) / centiseconds

	switch {
	case total < secondsPerMinute:
		return fmt.Sprintf("0:00:%05.2f", total)
	case total < secondsPerHour:
		minutes := int(total / secondsPerMinute)
		seconds := math.Mod(total, secondsPerMinute)
		return fmt.Sprintf("0:%02d:%05.2f", minutes, seconds)
	default:
		hours := int(total / secondsPerHour)
		minutes := int(math.Mod(total, secondsPerHour) / secondsPerMinute)
		seconds := math.Mod(total, secondsPerMinute)
		return fmt.Sprintf("%d:%02d:%05.2f", hours, minutes, seconds)
	}
}

// FormatTime canonicalizes a typed-in time. Input that does not parse is
// returned verbatim.
func FormatTime(input string) string {
	seconds, err := ParseTimeToSeconds(input)
	if err != nil {
		return input
	}
	return FormatSeconds(seconds)
}

// ParsePoints parses a points result: a finite number >= 0.
func ParsePoints(input string) (float64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, newError(ErrEmptyValue, input, msgEmptyValue)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, newError(ErrInvalidNumber, input, msgInvalidNumber)
	}
	return v, nil
}

// ValidateResult checks a typed-in result for the given event kind.
func ValidateResult(input string, isTimeBased bool) error {
	if strings.TrimSpace(input) == "" {
		return newError(ErrEmptyValue, input, msgEmptyValue)
	}
	if isTimeBased {
		_, err := ParseTimeToSeconds(input)
		return err
	}
	_, err := ParsePoints(input)
	return err
}

// Normalized is a validated result in the shape the record-creation
// endpoint expects.
type Normalized struct {
	// TimeResult is the canonical time string, empty for points events.
	TimeResult string
	// OriginalResult is seconds for time events and points otherwise.
	OriginalResult float64
}

// Normalize validates input and converts it for submission.
func Normalize(input string, isTimeBased bool) (Normalized, error) {
	if err := ValidateResult(input, isTimeBased); err != nil {
		return Normalized{}, err
	}
	if isTimeBased {
		seconds, _ := ParseTimeToSeconds(input)
		return Normalized{TimeResult: FormatSeconds(seconds), OriginalResult: seconds}, nil
	}
	points, _ := ParsePoints(input)
	return Normalized{OriginalResult: points}, nil
}

// Display renders the result cell of a results table: the time when known,
// the original result with one decimal otherwise, "-" when neither is set.
func Display(timeResult string, originalResult *float64) string {
	switch {
	case timeResult != "":
		return timeResult
	case originalResult != nil && *originalResult != 0:
		return strconv.FormatFloat(*originalResult, 'f', 1, 64)
	default:
		return "-"
	}
}
