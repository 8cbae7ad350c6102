package clock

import (
	"testing"
	"time"
)

func TestDayOfUsesCalendarTimezone(t *testing.T) {
	cal, err := NewCalendar("America/New_York")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	// 02:30 UTC on the 15th is still the evening of the 14th in New York.
	instant := time.Date(2026, 10, 15, 2, 30, 0, 0, time.UTC)
	got := cal.DayOf(instant)
	want := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DayOf: got=%s want=%s", got, want)
	}
}

func TestDaysBetweenCrossesDST(t *testing.T) {
	cal, err := NewCalendar("Europe/Berlin")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	before := cal.DayOf(time.Date(2026, 10, 24, 12, 0, 0, 0, cal.Loc))
	after := cal.DayOf(time.Date(2026, 10, 26, 12, 0, 0, 0, cal.Loc))
	if got := DaysBetween(before, after); got != 2 {
		t.Fatalf("DaysBetween across DST: got=%d", got)
	}
	if got := DaysBetween(after, before); got != -2 {
		t.Fatalf("DaysBetween reversed: got=%d", got)
	}
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFake(start)
	fc.Advance(36 * time.Hour)
	cal := Calendar{}
	if got := DaysBetween(cal.DayOf(start), cal.Today(fc)); got != 1 {
		t.Fatalf("expected one calendar day, got %d", got)
	}
}

func TestAtBuildsLocalInstant(t *testing.T) {
	cal, _ := NewCalendar("Asia/Tokyo")
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got := cal.At(d, 0, 5)
	if got.UTC() != time.Date(2026, 2, 28, 15, 5, 0, 0, time.UTC) {
		t.Fatalf("At: got=%s", got.UTC())
	}
}
