package core

import (
	"testing"
	"time"
)

// 2024-01-01 is a Monday.
var monday = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func TestDueBoundaries_NeverSettled(t *testing.T) {
	due := DueBoundaries(time.Time{}, monday.AddDate(0, 0, 60), DefaultAccrualWeekday)
	if len(due) != 0 {
		t.Errorf("unsettled account should owe nothing, got %d boundaries", len(due))
	}
}

func TestDueBoundaries_WeeklyCoverage(t *testing.T) {
	// Watermark on a boundary, now five weeks later: exactly one boundary
	// per missed week, each seven days apart.
	now := monday.AddDate(0, 0, 35)
	due := DueBoundaries(monday, now, DefaultAccrualWeekday)

	if len(due) != 5 {
		t.Fatalf("want 5 boundaries, got %d", len(due))
	}
	for i, d := range due {
		want := monday.AddDate(0, 0, 7*(i+1))
		if !d.Equal(want) {
			t.Errorf("boundary %d = %v, want %v", i, d, want)
		}
		if d.Weekday() != time.Monday {
			t.Errorf("boundary %d falls on %v, want Monday", i, d.Weekday())
		}
	}
}

func TestDueBoundaries_PartialWeek(t *testing.T) {
	now := monday.AddDate(0, 0, 3)
	due := DueBoundaries(monday, now, DefaultAccrualWeekday)
	if len(due) != 0 {
		t.Errorf("3 days after a paid boundary nothing is due, got %d", len(due))
	}
}

func TestDueBoundaries_NowExactlyOnBoundary(t *testing.T) {
	// Inclusive comparison: a boundary landing on today is paid today.
	now := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	due := DueBoundaries(monday, now, DefaultAccrualWeekday)
	if len(due) != 1 {
		t.Fatalf("want the boundary falling on now itself, got %d", len(due))
	}
	if !SameDay(due[0], now) {
		t.Errorf("boundary %v should fall on %v", due[0], now)
	}
}

func TestDueBoundaries_TimeOfDayIgnoredForComparison(t *testing.T) {
	// now is 06:00 on a boundary day while the watermark carries 09:30;
	// day granularity means the boundary is still due.
	now := time.Date(2024, 1, 8, 6, 0, 0, 0, time.UTC)
	due := DueBoundaries(monday, now, DefaultAccrualWeekday)
	if len(due) != 1 {
		t.Fatalf("want 1 boundary at day granularity, got %d", len(due))
	}
	// Stamped instants preserve the watermark's time of day.
	if due[0].Hour() != 9 || due[0].Minute() != 30 {
		t.Errorf("boundary should keep watermark time of day, got %v", due[0])
	}
}

func TestDueBoundaries_OffBoundaryWatermark(t *testing.T) {
	// Watermark on a Wednesday: the next boundary is the following Monday,
	// found by advancing day by day.
	wednesday := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	now := wednesday.AddDate(0, 0, 14)
	due := DueBoundaries(wednesday, now, DefaultAccrualWeekday)

	if len(due) != 2 {
		t.Fatalf("want 2 boundaries, got %d", len(due))
	}
	first := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	if !due[0].Equal(first) {
		t.Errorf("first boundary = %v, want %v", due[0], first)
	}
}

func TestDueBoundaries_ConfigurableWeekday(t *testing.T) {
	// Friday accruals: watermark on Monday Jan 1, first boundary Friday Jan 5.
	now := monday.AddDate(0, 0, 7)
	due := DueBoundaries(monday, now, time.Friday)
	if len(due) != 1 {
		t.Fatalf("want 1 Friday boundary, got %d", len(due))
	}
	if due[0].Weekday() != time.Friday || due[0].Day() != 5 {
		t.Errorf("boundary = %v, want Friday Jan 5", due[0])
	}
}

func TestDueBoundaries_Idempotent(t *testing.T) {
	// After paying through the last due boundary, the same now owes nothing.
	now := monday.AddDate(0, 0, 35)
	due := DueBoundaries(monday, now, DefaultAccrualWeekday)
	if len(due) == 0 {
		t.Fatal("setup: expected due boundaries")
	}
	again := DueBoundaries(due[len(due)-1], now, DefaultAccrualWeekday)
	if len(again) != 0 {
		t.Errorf("second pass with advanced watermark should owe nothing, got %d", len(again))
	}
}

func TestSameDay(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			name: "same day different times",
			a:    time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "adjacent days",
			a:    time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC),
			b:    time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "same day of month different month",
			a:    time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(tt.a, tt.b); got != tt.want {
				t.Errorf("SameDay() = %v, want %v", got, tt.want)
			}
		})
	}
}
