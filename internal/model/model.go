package model

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-date form used on the wire and in logs.
const DateLayout = "2006-01-02"

// Category is a set of tags attached to a raw calendar event. The classifier
// routes events on tag membership only.
type Category uint32

const (
	CategoryHoliday Category = 1 << iota
	CategoryCandleLighting
	CategoryParsha
	CategoryHavdalah
	CategoryMinorFast
	CategoryRoshChodesh
	CategoryMajor
	CategoryMinor
	CategoryModern
	CategorySpecialShabbat
	CategoryCholHamoed
)

// categoryNames fixes the order in which tags are rendered.
var categoryNames = []struct {
	tag  Category
	name string
}{
	{CategoryHoliday, "holiday"},
	{CategoryMajor, "major"},
	{CategoryCholHamoed, "cholhamoed"},
	{CategoryMinor, "minor"},
	{CategoryModern, "modern"},
	{CategoryMinorFast, "fast"},
	{CategorySpecialShabbat, "shabbat"},
	{CategoryRoshChodesh, "roshchodesh"},
	{CategoryCandleLighting, "candles"},
	{CategoryParsha, "parashat"},
	{CategoryHavdalah, "havdalah"},
}

// Has reports whether every tag in want is present.
func (c Category) Has(want Category) bool {
	return want != 0 && c&want == want
}

// Names renders the tag set as stable lower-case names.
func (c Category) Names() []string {
	out := make([]string, 0, 2)
	for _, cn := range categoryNames {
		if c&cn.tag != 0 {
			out = append(out, cn.name)
		}
	}
	return out
}

// Location identifies where timed events (candle lighting, Havdalah) are
// computed. TimezoneID is an IANA zone name.
type Location struct {
	Latitude   float64
	Longitude  float64
	Elevation  float64
	TimezoneID string
}

// Flags selects what the calendar engine should emit for a query.
type Flags struct {
	CandleLighting   bool
	Sedrot           bool
	MinorFasts       bool
	RoshChodesh      bool
	Modern           bool
	SpecialShabbatot bool

	// CandleLightingMins is minutes before sundown; zero lets the engine
	// use its default.
	CandleLightingMins int
	// HavdalahMins is minutes after sundown; zero means nightfall.
	HavdalahMins int
}

// Window is a half-open civil-date range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Query is one request to the calendar engine. It is built per request and
// discarded after formatting.
type Query struct {
	Anchor   time.Time
	Window   Window
	Location *Location
	Flags    Flags
}

// RawEvent is one event as produced by the calendar engine. The core never
// mutates it.
type RawEvent struct {
	Description    string
	Categories     Category
	CivilDate      time.Time
	HebrewDateText string
	LocalizedBrief string
	// FormattedTime is the local clock time (HH:MM) of timed events.
	FormattedTime string
	Memo          string
}

// HolidayOccurrence is the client-facing form of one holiday, after
// deduplication and title normalization.
type HolidayOccurrence struct {
	Title       string
	RawTitle    string
	HebrewTitle string
	Date        time.Time
	HebrewDate  string
	Categories  Category
	// Description is the bundled explanation of the holiday, if any.
	Description string
}

// TimedEvent is a candle-lighting or Havdalah occurrence.
type TimedEvent struct {
	Time  string
	Memo  string
	Date  time.Time
	Brief string
}

// Reading is one Torah portion: its verse range and a short summary.
type Reading struct {
	Key     string
	English string
	Hebrew  string
	Verses  string
	Blurb   string
}

// Parasha is the weekly Torah reading found in a Shabbat window. A double
// parasha has two Readings.
type Parasha struct {
	Title      string
	Name       string
	Key        string
	Hebrew     string
	Date       time.Time
	HebrewDate string
	Memo       string
	Readings   []Reading
}

// ShabbatWeekInfo collects the Shabbat fields found in one window. Every
// part is independently optional.
type ShabbatWeekInfo struct {
	Candle     *TimedEvent
	Parasha    *Parasha
	Havdalah   *TimedEvent
	TimezoneID string
	Window     Window

	// ErevShabbat and YomShabbat are the Friday and Saturday of the window.
	ErevShabbat time.Time
	YomShabbat  time.Time
	// EndsIntoYomTov is set when candles are lit again on Saturday night, so
	// Shabbat runs straight into a festival and has no Havdalah of its own.
	EndsIntoYomTov bool
	// ParashaReplacedByHoliday is set when a major festival or Chol HaMoed
	// falls on Saturday and no weekly reading is read.
	ParashaReplacedByHoliday bool
}

// ParseDate parses an ISO calendar date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// CivilDate truncates t to its calendar day in t's own location and returns
// that day as midnight UTC.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders the calendar day of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
