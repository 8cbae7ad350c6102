package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

func newNY(t *testing.T) clock.Calendar {
	t.Helper()
	cal, err := clock.NewCalendar("America/New_York")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	return cal
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("00:05")
	if err != nil || h != 0 || m != 5 {
		t.Fatalf("00:05: h=%d m=%d err=%v", h, m, err)
	}
	for _, bad := range []string{"", "5", "24:00", "12:60", "aa:bb", "1:2:3"} {
		if _, _, err := ParseClock(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestNextFiresLaterTodayOrTomorrow(t *testing.T) {
	cal := newNY(t)
	d := New(logger.Nop(), clock.Real{}, cal)
	if err := d.Add("decay", "00:01", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("add: %v", err)
	}
	ny, _ := time.LoadLocation("America/New_York")

	before := time.Date(2025, 3, 10, 0, 0, 30, 0, ny)
	got, err := d.Next("decay", before)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if want := time.Date(2025, 3, 10, 0, 1, 0, 0, ny); !got.Equal(want) {
		t.Fatalf("same day: got=%s want=%s", got, want)
	}

	exactly := time.Date(2025, 3, 10, 0, 1, 0, 0, ny)
	got, _ = d.Next("decay", exactly)
	if want := time.Date(2025, 3, 11, 0, 1, 0, 0, ny); !got.Equal(want) {
		t.Fatalf("at fire time: got=%s want=%s", got, want)
	}

	// 02:00 UTC on the 10th is still the evening of the 9th in New York.
	got, _ = d.Next("decay", time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC))
	if want := time.Date(2025, 3, 10, 0, 1, 0, 0, ny); !got.Equal(want) {
		t.Fatalf("timezone: got=%s want=%s", got, want)
	}
}

func TestAddRejectsDuplicatesAndBadTimes(t *testing.T) {
	d := New(logger.Nop(), clock.Real{}, newNY(t))
	noop := func(context.Context) error { return nil }
	if err := d.Add("decay", "00:01", noop); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := d.Add("decay", "00:02", noop); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := d.Add("harvest", "25:00", noop); err == nil {
		t.Fatalf("expected bad time error")
	}
	if _, err := d.Trigger(context.Background(), "missing"); err == nil {
		t.Fatalf("expected unknown job error")
	}
}

func TestTriggerSkipsOverlappingRun(t *testing.T) {
	d := New(logger.Nop(), clock.Real{}, newNY(t))
	started := make(chan struct{})
	release := make(chan struct{})
	_ = d.Add("decay", "00:01", func(context.Context) error {
		close(started)
		<-release
		return nil
	})

	done := make(chan bool)
	go func() {
		ran, _ := d.Trigger(context.Background(), "decay")
		done <- ran
	}()
	<-started

	ran, err := d.Trigger(context.Background(), "decay")
	if err != nil || ran {
		t.Fatalf("overlapping trigger: ran=%v err=%v", ran, err)
	}
	close(release)
	if !<-done {
		t.Fatalf("first trigger should have run")
	}
}

func TestTriggerRecoversPanics(t *testing.T) {
	d := New(logger.Nop(), clock.Real{}, newNY(t))
	_ = d.Add("harvest", "00:05", func(context.Context) error { panic("boom") })

	ran, err := d.Trigger(context.Background(), "harvest")
	if !ran || err == nil {
		t.Fatalf("expected recovered panic, ran=%v err=%v", ran, err)
	}

	// The run-lock must be free again.
	_ = d.Add("other", "00:06", func(context.Context) error { return errors.New("plain") })
	if ran, err := d.Trigger(context.Background(), "other"); !ran || err == nil || err.Error() != "plain" {
		t.Fatalf("plain error: ran=%v err=%v", ran, err)
	}
}

func TestRunFiresAtTimeOfDay(t *testing.T) {
	cal := newNY(t)
	ny, _ := time.LoadLocation("America/New_York")
	clk := clock.NewFake(time.Date(2025, 3, 10, 0, 0, 0, 0, ny))

	ticks := make(chan time.Time)
	waits := make(chan time.Duration, 4)
	d := New(logger.Nop(), clk, cal, WithTimer(func(dur time.Duration) <-chan time.Time {
		waits <- dur
		return ticks
	}))

	runs := make(chan time.Time, 4)
	_ = d.Add("decay", "00:01", func(context.Context) error {
		runs <- clk.Now()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(stopped)
	}()

	if got := <-waits; got != time.Minute {
		t.Fatalf("first wait: got=%s want=1m", got)
	}
	clk.Advance(time.Minute)
	ticks <- clk.Now()
	if at := <-runs; !at.Equal(time.Date(2025, 3, 10, 0, 1, 0, 0, ny)) {
		t.Fatalf("ran at %s", at)
	}

	if got := <-waits; got != 24*time.Hour {
		t.Fatalf("second wait: got=%s want=24h", got)
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
