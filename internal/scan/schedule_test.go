package scan

import (
	"testing"
	"time"

	"github.com/jtdct/sonora/internal/catalog"
)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestNextOccurrenceManualOverridesEverything(t *testing.T) {
	now := at(2026, time.March, 10, 12, 0)
	next, ok := NextOccurrence(now, catalog.PeriodNever, 0, true)
	if !ok || !next.Equal(now) {
		t.Fatalf("manual scan request should schedule immediately, got %v ok=%v", next, ok)
	}
}

func TestNextOccurrenceNeverStaysUnscheduled(t *testing.T) {
	now := at(2026, time.March, 10, 12, 0)
	_, ok := NextOccurrence(now, catalog.PeriodNever, 0, false)
	if ok {
		t.Fatal("period=never must never schedule")
	}
}

func TestDailyBeforeOffsetUsesToday(t *testing.T) {
	now := at(2026, time.March, 10, 1, 0) // 01:00
	offset := 4 * 3600                    // 04:00
	next, ok := NextOccurrence(now, catalog.PeriodDaily, offset, false)
	if !ok {
		t.Fatal("expected a scheduled time")
	}
	want := at(2026, time.March, 10, 4, 0)
	if !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}
}

func TestDailyAfterOffsetRollsToTomorrow(t *testing.T) {
	now := at(2026, time.March, 10, 5, 0) // 05:00
	offset := 4 * 3600                    // 04:00
	next, ok := NextOccurrence(now, catalog.PeriodDaily, offset, false)
	if !ok {
		t.Fatal("expected a scheduled time")
	}
	want := at(2026, time.March, 11, 4, 0)
	if !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}
}

func TestWeeklyOnMondayBeforeOffsetUsesToday(t *testing.T) {
	// 2026-03-09 is a Monday.
	now := at(2026, time.March, 9, 1, 0)
	offset := 4 * 3600
	next, ok := NextOccurrence(now, catalog.PeriodWeekly, offset, false)
	if !ok {
		t.Fatal("expected a scheduled time")
	}
	want := at(2026, time.March, 9, 4, 0)
	if !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}
}

func TestWeeklyNonMondayRollsToNextMonday(t *testing.T) {
	now := at(2026, time.March, 10, 12, 0) // Tuesday
	next, ok := NextOccurrence(now, catalog.PeriodWeekly, 0, false)
	if !ok {
		t.Fatal("expected a scheduled time")
	}
	if next.Weekday() != time.Monday || !next.After(now) {
		t.Fatalf("expected next Monday after %v, got %v", now, next)
	}
}

func TestMonthlyOnFirstBeforeOffsetUsesToday(t *testing.T) {
	now := at(2026, time.March, 1, 1, 0)
	offset := 4 * 3600
	next, ok := NextOccurrence(now, catalog.PeriodMonthly, offset, false)
	if !ok {
		t.Fatal("expected a scheduled time")
	}
	want := at(2026, time.March, 1, 4, 0)
	if !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}
}

func TestMonthlyRollsToNextFirst(t *testing.T) {
	now := at(2026, time.March, 15, 12, 0)
	next, ok := NextOccurrence(now, catalog.PeriodMonthly, 0, false)
	if !ok {
		t.Fatal("expected a scheduled time")
	}
	want := at(2026, time.April, 1, 0, 0)
	if !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}
}
