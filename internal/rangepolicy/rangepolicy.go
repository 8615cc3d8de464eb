// Package rangepolicy turns an anchor date into the query windows sent to
// the calendar engine. All functions are pure.
package rangepolicy

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"yomtov/internal/model"
)

const (
	// HolidayMonths is the forward length of the holiday window.
	HolidayMonths = 15
	// ShabbatWindowDays is the forward length of the Shabbat window.
	ShabbatWindowDays = 7
	// MaxWeeks caps WeeklyAnchors.
	MaxWeeks = 52
)

// HolidayWindow returns [anchor+1 day, start+15 months). Results are always
// upcoming; the anchor day itself is excluded.
func HolidayWindow(anchor time.Time) model.Window {
	start := model.CivilDate(anchor).AddDate(0, 0, 1)
	return model.Window{
		Start: start,
		End:   AddMonthsClamped(start, HolidayMonths),
	}
}

// ShabbatWindow returns [anchor, anchor+7 days).
func ShabbatWindow(anchor time.Time) model.Window {
	start := model.CivilDate(anchor)
	return model.Window{
		Start: start,
		End:   start.AddDate(0, 0, ShabbatWindowDays),
	}
}

// ShabbatDays returns the Friday and Saturday of the Shabbat window of
// anchor. The Saturday is the only one inside [anchor, anchor+7 days); when
// anchor is itself a Saturday the Friday is the day before it.
func ShabbatDays(anchor time.Time) (friday, saturday time.Time) {
	start := model.CivilDate(anchor)
	offset := (int(time.Saturday) - int(start.Weekday()) + 7) % 7
	saturday = start.AddDate(0, 0, offset)
	return saturday.AddDate(0, 0, -1), saturday
}

// ShabbatQueryWindow is the engine window for a Shabbat lookup: the Shabbat
// window, widened back to Friday when anchor is a Saturday so that day's
// candle lighting is included.
func ShabbatQueryWindow(anchor time.Time) model.Window {
	w := ShabbatWindow(anchor)
	if friday, _ := ShabbatDays(anchor); friday.Before(w.Start) {
		w.Start = friday
	}
	return w
}

// AddMonthsClamped adds months to a civil date. When the day of month does
// not exist in the target month it is clamped to that month's last day, so
// 2023-11-30 + 3 months is 2024-02-29 rather than 2024-03-01.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// WeeklyAnchors returns n anchors one week apart starting at anchor. Each one
// is suitable for ShabbatWindow.
func WeeklyAnchors(anchor time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, errors.New("rangepolicy: week count must be positive")
	}
	if n > MaxWeeks {
		n = MaxWeeks
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   n,
		Dtstart: model.CivilDate(anchor),
	})
	if err != nil {
		return nil, err
	}
	return r.All(), nil
}
