package rangepolicy

import (
	"testing"
	"time"

	"yomtov/internal/model"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestHolidayWindow(t *testing.T) {
	tests := []struct {
		anchor string
		start  string
		end    string
	}{
		{"2024-03-01", "2024-03-02", "2025-06-02"},
		{"2024-05-30", "2024-05-31", "2025-08-31"},
		{"2023-11-29", "2023-11-30", "2025-02-28"},
		{"2022-10-30", "2022-10-31", "2024-01-31"},
		{"2023-12-31", "2024-01-01", "2025-04-01"},
	}

	for _, tt := range tests {
		t.Run(tt.anchor, func(t *testing.T) {
			w := HolidayWindow(day(t, tt.anchor))
			if got := model.FormatDate(w.Start); got != tt.start {
				t.Errorf("start = %s, want %s", got, tt.start)
			}
			if got := model.FormatDate(w.End); got != tt.end {
				t.Errorf("end = %s, want %s", got, tt.end)
			}
			if !w.Start.After(day(t, tt.anchor)) {
				t.Errorf("start %s not after anchor %s", w.Start, tt.anchor)
			}
			if !w.Start.Before(w.End) {
				t.Errorf("window not ordered: %v", w)
			}
		})
	}
}

func TestHolidayWindowEndIsFifteenMonthsAfterStart(t *testing.T) {
	anchor := day(t, "2024-01-01")
	for i := 0; i < 366; i++ {
		a := anchor.AddDate(0, 0, i)
		w := HolidayWindow(a)
		months := (w.End.Year()-w.Start.Year())*12 + int(w.End.Month()) - int(w.Start.Month())
		if months != HolidayMonths {
			t.Fatalf("anchor %s: end %s is %d months after start %s",
				model.FormatDate(a), model.FormatDate(w.End), months, model.FormatDate(w.Start))
		}
		if w.End.Day() > w.Start.Day() {
			t.Fatalf("anchor %s: end day %d exceeds start day %d", model.FormatDate(a), w.End.Day(), w.Start.Day())
		}
	}
}

func TestHolidayWindowIgnoresTimeOfDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	w := HolidayWindow(time.Date(2024, 3, 1, 23, 45, 0, 0, ny))
	if got := model.FormatDate(w.Start); got != "2024-03-02" {
		t.Fatalf("start = %s, want 2024-03-02", got)
	}
}

func TestShabbatWindow(t *testing.T) {
	w := ShabbatWindow(day(t, "2024-02-26"))
	if got := model.FormatDate(w.Start); got != "2024-02-26" {
		t.Fatalf("start = %s", got)
	}
	if got := model.FormatDate(w.End); got != "2024-03-04" {
		t.Fatalf("end = %s", got)
	}
}

func TestAddMonthsClampedLeapYear(t *testing.T) {
	got := AddMonthsClamped(day(t, "2024-01-31"), 1)
	if model.FormatDate(got) != "2024-02-29" {
		t.Fatalf("got %s, want 2024-02-29", model.FormatDate(got))
	}
	got = AddMonthsClamped(day(t, "2023-01-31"), 1)
	if model.FormatDate(got) != "2023-02-28" {
		t.Fatalf("got %s, want 2023-02-28", model.FormatDate(got))
	}
}

func TestWeeklyAnchors(t *testing.T) {
	got, err := WeeklyAnchors(day(t, "2024-03-01"), 3)
	if err != nil {
		t.Fatalf("weekly anchors: %v", err)
	}
	want := []string{"2024-03-01", "2024-03-08", "2024-03-15"}
	if len(got) != len(want) {
		t.Fatalf("got %d anchors, want %d", len(got), len(want))
	}
	for i := range want {
		if model.FormatDate(got[i]) != want[i] {
			t.Errorf("anchor[%d] = %s, want %s", i, model.FormatDate(got[i]), want[i])
		}
	}

	if _, err := WeeklyAnchors(day(t, "2024-03-01"), 0); err == nil {
		t.Fatal("expected error for zero weeks")
	}
	capped, err := WeeklyAnchors(day(t, "2024-03-01"), 500)
	if err != nil {
		t.Fatalf("weekly anchors: %v", err)
	}
	if len(capped) != MaxWeeks {
		t.Fatalf("expected cap at %d, got %d", MaxWeeks, len(capped))
	}
}

func TestShabbatDays(t *testing.T) {
	tests := []struct {
		anchor   string
		friday   string
		saturday string
	}{
		{"2024-06-09", "2024-06-14", "2024-06-15"}, // Sunday
		{"2024-06-14", "2024-06-14", "2024-06-15"}, // Friday
		{"2024-06-15", "2024-06-14", "2024-06-15"}, // Saturday
		{"2024-12-30", "2025-01-03", "2025-01-04"},
	}
	for _, tt := range tests {
		friday, saturday := ShabbatDays(day(t, tt.anchor))
		if got := model.FormatDate(friday); got != tt.friday {
			t.Errorf("%s: friday = %s, want %s", tt.anchor, got, tt.friday)
		}
		if got := model.FormatDate(saturday); got != tt.saturday {
			t.Errorf("%s: saturday = %s, want %s", tt.anchor, got, tt.saturday)
		}
	}
}

func TestShabbatQueryWindow(t *testing.T) {
	w := ShabbatQueryWindow(day(t, "2024-06-15"))
	if model.FormatDate(w.Start) != "2024-06-14" || model.FormatDate(w.End) != "2024-06-22" {
		t.Fatalf("saturday anchor window = %s..%s", model.FormatDate(w.Start), model.FormatDate(w.End))
	}
	w = ShabbatQueryWindow(day(t, "2024-06-09"))
	if model.FormatDate(w.Start) != "2024-06-09" || model.FormatDate(w.End) != "2024-06-16" {
		t.Fatalf("sunday anchor window = %s..%s", model.FormatDate(w.Start), model.FormatDate(w.End))
	}
}
