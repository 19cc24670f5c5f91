package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// nullTokens are the textual spellings upstream exports use for a missing cell.
var nullTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"NaN":  {},
	"None": {},
	"null": {},
	"NULL": {},
	"NaT":  {},
	"<NA>": {},
}

// IsNull reports whether s spells a missing value.
func IsNull(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// ParseInt parses an integer cell. Integral floats such as "12.0" are
// accepted since upstream exports write nullable integers that way.
func ParseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if IsNull(s) {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, ok := ParseFloat(s)
	// float64(MaxInt64) rounds up to 2^63, which int64 cannot hold
	if !ok || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// ParseFloat parses a finite float cell.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if IsNull(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// timeLayouts are tried in order. Zone-less layouts are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// ParseTime parses a timestamp cell and normalises it to UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if IsNull(s) {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTime renders t as a date when it falls on midnight, otherwise as a
// date and time.
func FormatTime(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}

// FormatFloat renders f with the fewest digits that round-trip.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatInt renders n in base 10.
func FormatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
