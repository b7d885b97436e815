package timeutil

import (
	"errors"
	"testing"
	"time"
)

func TestResolveRangeDefaults(t *testing.T) {
	now := time.Date(2024, time.November, 7, 12, 30, 0, 0, time.UTC)
	win, err := ResolveRange("", "", now, time.UTC)
	if err != nil {
		t.Fatalf("resolve range: %v", err)
	}
	if !win.From().Equal(EarliestFrom) {
		t.Fatalf("unexpected from %v", win.From())
	}
	wantTo := time.Date(2024, time.November, 7, 23, 59, 59, 999_000_000, time.UTC)
	if !win.To().Equal(wantTo) {
		t.Fatalf("unexpected to %v", win.To())
	}
}

func TestResolveRangeWidensToEndOfDay(t *testing.T) {
	now := time.Date(2024, time.November, 7, 12, 0, 0, 0, time.UTC)
	win, err := ResolveRange("2024-01-01", "2024-01-31", now, time.UTC)
	if err != nil {
		t.Fatalf("resolve range: %v", err)
	}
	if !win.From().Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", win.From())
	}
	wantTo := time.Date(2024, time.January, 31, 23, 59, 59, 999_000_000, time.UTC)
	if !win.To().Equal(wantTo) {
		t.Fatalf("unexpected to %v", win.To())
	}
	if !win.Contains(time.Date(2024, time.January, 31, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected last day to be inside the window")
	}
	if win.Contains(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamp should be outside window")
	}
}

func TestResolveRangeInvalidInput(t *testing.T) {
	now := time.Now()
	if _, err := ResolveRange("not-a-date", "", now, time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := ResolveRange("2024-05-01", "2024-04-01", now, time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for inverted bounds, got %v", err)
	}
}

func TestPreviousWindowMirrorsDuration(t *testing.T) {
	now := time.Date(2024, time.June, 30, 10, 0, 0, 0, time.UTC)
	win, err := ResolveRange("2024-06-01", "2024-06-30", now, time.UTC)
	if err != nil {
		t.Fatalf("resolve range: %v", err)
	}
	prev := win.Previous()
	if !prev.To().Equal(win.From()) {
		t.Fatalf("previous window should end at current start, got %v", prev.To())
	}
	if prev.Duration() != win.Duration() {
		t.Fatalf("previous window duration %v != %v", prev.Duration(), win.Duration())
	}
	if !prev.From().Equal(win.From().Add(-win.Duration())) {
		t.Fatalf("unexpected previous start %v", prev.From())
	}
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 18, 45, 0, 0, time.UTC)
	if got := DayKey(ts, time.UTC); got != "2024-03-05" {
		t.Fatalf("unexpected day key %s", got)
	}
}

func TestResolveRangeTimestampInput(t *testing.T) {
	now := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	win, err := ResolveRange("2024-06-15T08:30:00Z", "2024-06-20T01:00:00Z", now, time.UTC)
	if err != nil {
		t.Fatalf("resolve range: %v", err)
	}
	if !win.From().Equal(time.Date(2024, time.June, 15, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", win.From())
	}
	wantTo := time.Date(2024, time.June, 20, 23, 59, 59, 999_000_000, time.UTC)
	if !win.To().Equal(wantTo) {
		t.Fatalf("unexpected to %v", win.To())
	}
}
