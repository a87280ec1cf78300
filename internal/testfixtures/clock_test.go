package testfixtures

import (
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	t.Run("zero start uses reference time", func(t *testing.T) {
		if got := NewClock(time.Time{}).Now(); !got.Equal(ReferenceTime()) {
			t.Fatalf("expected %v, got %v", ReferenceTime(), got)
		}
	})

	t.Run("injected func follows the clock", func(t *testing.T) {
		start := time.Date(2024, time.May, 20, 8, 30, 0, 0, time.UTC)
		clock := NewClock(start)
		now := clock.NowFunc()

		if got := clock.Advance(90 * time.Minute); !got.Equal(start.Add(90 * time.Minute)) {
			t.Fatalf("advance returned %v", got)
		}
		if got := now(); !got.Equal(start.Add(90 * time.Minute)) {
			t.Fatalf("expected NowFunc to observe advance, got %v", got)
		}

		clock.Set(start)
		if got := now(); !got.Equal(start) {
			t.Fatalf("expected %v after Set, got %v", start, got)
		}
	})

	t.Run("nil clock falls back to wall time", func(t *testing.T) {
		var clock *Clock
		if clock.NowFunc()().IsZero() {
			t.Fatalf("expected wall clock time")
		}
	})
}
