// Package logdate resolves the partial "Month Day" labels used as session
// headers in hand-written gym logs into absolute calendar dates.
package logdate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// OutOfOrderDayTolerance is the maximum forward jump, in days, accepted
// between consecutive log entries before a label is assumed to belong to the
// previous calendar year. Tuned against the historical log corpus; a policy
// constant, not a hard law.
const OutOfOrderDayTolerance = 45

var months = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

var (
	labelPattern = regexp.MustCompile(`^([A-Za-z]{3,})\s+(\d{1,2})$`)
	innerSpaces  = regexp.MustCompile(`\s+`)
)

func normalizeLabel(label string) string {
	value := strings.TrimSpace(label)
	// A stray leading "T" glued onto the month is a known typo in the corpus.
	if len(value) >= 2 && value[0] == 'T' && isASCIILetter(value[1]) {
		value = value[1:]
	}
	value = strings.TrimSuffix(value, ":")
	return innerSpaces.ReplaceAllString(value, " ")
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func parseMonthDay(label string) (time.Month, int, error) {
	match := labelPattern.FindStringSubmatch(normalizeLabel(label))
	if match == nil {
		return 0, 0, fmt.Errorf("invalid date label: %q", label)
	}

	monthKey := strings.ToLower(match[1][:3])
	month, ok := months[monthKey]
	if !ok {
		return 0, 0, fmt.Errorf("unknown month in label: %q", label)
	}

	day, err := strconv.Atoi(match[2])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("invalid day in label: %q", label)
	}

	return month, day, nil
}

// IsMonthDayLabel reports whether the value parses as a supported
// "Month Day" session header. The segmenter uses this to tell date headers
// apart from exercise lines.
func IsMonthDayLabel(value string) bool {
	_, _, err := parseMonthDay(value)
	return err == nil
}

// Resolve turns a "Month Day" label into an absolute ISO date (YYYY-MM-DD).
//
// With no previous date, the current year is tried first; a result in the
// future relative to now (truncated to day, UTC) rolls back one year, so a
// log started near a year boundary is not dated into the future.
//
// With a previous date, the previous entry's year is tried first; a forward
// jump larger than OutOfOrderDayTolerance days rolls back one year, which
// handles logs crossing a December-to-January boundary without year markers.
func Resolve(label, previousISODate string, now time.Time) (string, error) {
	month, day, err := parseMonthDay(label)
	if err != nil {
		return "", err
	}

	if previousISODate == "" {
		year := now.UTC().Year()
		candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		today := now.UTC().Truncate(24 * time.Hour)
		if candidate.After(today) {
			candidate = time.Date(year-1, month, day, 0, 0, 0, 0, time.UTC)
		}
		return candidate.Format(time.DateOnly), nil
	}

	previous, err := time.ParseInLocation(time.DateOnly, previousISODate, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid previous date %q: %w", previousISODate, err)
	}

	candidate := time.Date(previous.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if candidate.Sub(previous) > OutOfOrderDayTolerance*24*time.Hour {
		candidate = time.Date(previous.Year()-1, month, day, 0, 0, 0, 0, time.UTC)
	}
	return candidate.Format(time.DateOnly), nil
}
