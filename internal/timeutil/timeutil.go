package timeutil

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidRange = errors.New("invalid date range")

// EarliestFrom is the default lower bound when no "from" date is supplied.
var EarliestFrom = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Window represents an inclusive [from, to] reporting interval anchored to a location.
type Window struct {
	from time.Time
	to   time.Time
	loc  *time.Location
}

// EnsureLocation returns UTC when loc is nil.
func EnsureLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// ResolveRange builds the reporting window from optional ISO date inputs.
// A missing "from" falls back to the earliest representable date and a
// missing "to" falls back to now; "to" is always widened to the end of its
// calendar day so the upper bound covers the entire last day.
func ResolveRange(from, to string, now time.Time, loc *time.Location) (Window, error) {
	loc = EnsureLocation(loc)
	now = now.In(loc)

	start := EarliestFrom.In(loc)
	if s := strings.TrimSpace(from); s != "" {
		parsed, err := parseDate(s, loc)
		if err != nil {
			return Window{}, err
		}
		start = parsed
	}

	end := now
	if s := strings.TrimSpace(to); s != "" {
		parsed, err := parseDate(s, loc)
		if err != nil {
			return Window{}, err
		}
		end = parsed
	}
	end = EndOfDay(end, loc)

	if end.Before(start) {
		return Window{}, ErrInvalidRange
	}
	return Window{from: start, to: end, loc: loc}, nil
}

// NewWindow constructs a window from explicit bounds. Used for the
// previous-period comparison and in tests.
func NewWindow(from, to time.Time, loc *time.Location) Window {
	loc = EnsureLocation(loc)
	return Window{from: from.In(loc), to: to.In(loc), loc: loc}
}

// From returns the inclusive start of the window.
func (w Window) From() time.Time { return w.from }

// To returns the inclusive end of the window.
func (w Window) To() time.Time { return w.to }

// Bounds returns the from/to timestamps.
func (w Window) Bounds() (time.Time, time.Time) { return w.from, w.to }

// Location returns the reporting timezone for the window.
func (w Window) Location() *time.Location { return EnsureLocation(w.loc) }

// Duration returns the window length.
func (w Window) Duration() time.Duration { return w.to.Sub(w.from) }

// Contains reports whether the timestamp falls within [from, to].
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.from) && !ts.After(w.to)
}

// Previous returns the immediately preceding window of identical length:
// it ends where this one starts and reaches back by the same duration.
func (w Window) Previous() Window {
	return Window{
		from: w.from.Add(-w.Duration()),
		to:   w.from,
		loc:  w.loc,
	}
}

// FromString returns the start timestamp formatted as RFC3339 in the window's zone.
func (w Window) FromString() string { return w.from.In(w.Location()).Format(time.RFC3339) }

// ToString returns the end timestamp formatted as RFC3339 in the window's zone.
func (w Window) ToString() string { return w.to.In(w.Location()).Format(time.RFC3339) }

// DayKey returns the calendar-day bucket (YYYY-MM-DD) for a timestamp.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(EnsureLocation(loc)).Format("2006-01-02")
}

// EndOfDay widens the timestamp to 23:59:59.999 of its calendar day.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	loc = EnsureLocation(loc)
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, loc)
}

// TruncateToDay normalizes the timestamp to midnight in the provided zone.
func TruncateToDay(t time.Time, loc *time.Location) time.Time {
	loc = EnsureLocation(loc)
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, ErrInvalidRange
}
