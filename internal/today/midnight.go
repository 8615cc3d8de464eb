package today

import (
	"time"

	"github.com/robfig/cron/v3"
)

// midnight fires at 00:00 local time. cron evaluates it in the location of
// the time passed to Next.
var midnight = mustSchedule("0 0 * * *")

func mustSchedule(spec string) cron.Schedule {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// NextMidnight returns the first local day boundary strictly after now, in
// now's location.
//
// In zones that start DST at midnight 00:00 does not exist, and both cron
// and time.Date may land outside the next day. The result is then the
// first whole hour that falls on the next calendar day.
func NextMidnight(now time.Time) time.Time {
	loc := now.Location()
	y, m, d := now.Date()
	ny, nm, nd := time.Date(y, m, d+1, 12, 0, 0, 0, loc).Date()
	onNextDay := func(t time.Time) bool {
		ty, tm, td := t.Date()
		return ty == ny && tm == nm && td == nd && t.After(now)
	}

	if next := midnight.Next(now); !next.IsZero() && onNextDay(next) && next.Hour() == 0 {
		return next
	}
	for h := 0; h < 12; h++ {
		if t := time.Date(ny, nm, nd, h, 0, 0, 0, loc); onNextDay(t) {
			return t
		}
	}
	return time.Date(ny, nm, nd, 12, 0, 0, 0, loc)
}

// DelayUntilMidnight is the duration from now until NextMidnight(now).
func DelayUntilMidnight(now time.Time) time.Duration {
	return NextMidnight(now).Sub(now)
}

// IsoDay renders the local calendar day of t.
func IsoDay(t time.Time) string {
	return t.Format("2006-01-02")
}
