// Package api holds the wire JSON shapes served by the HTTP layer and
// decoded by the client, plus the formatters from the pipeline's model.
package api

import (
	"strings"
	"time"

	"yomtov/internal/model"
)

// Holiday is one entry of GET /api/holidays/{date}.
type Holiday struct {
	Title       string   `json:"title"`
	RawTitle    string   `json:"rawTitle"`
	HebrewTitle string   `json:"hebrewTitle"`
	Date        string   `json:"date"`
	HebrewDate  string   `json:"hebrewDate"`
	Categories  []string `json:"categories"`
	Description string   `json:"description"`
}

// Shabbat is the body of GET /api/shabbat/{date}. Absent values are null.
type Shabbat struct {
	CandleTime        *string `json:"candleTime"`
	CandleMemo        *string `json:"candleMemo"`
	CandleDate        *string `json:"candleDate"`
	ParashaTitle      *string `json:"parashaTitle"`
	ParashaHebrew     *string `json:"parashaHebrew"`
	ParashaDate       *string `json:"parashaDate"`
	ParashaHebrewDate *string `json:"parashaHebrewDate"`
	ParashaMemo       *string `json:"parashaMemo"`
	ParashaKey        *string `json:"parashaKey"`
	ParashaSummary    *string `json:"parashaSummary"`
	ParashaRange      *string `json:"parashaRange"`
	HavdalahTime      *string `json:"havdalahTime"`
	HavdalahMemo      *string `json:"havdalahMemo"`
	HavdalahDate      *string `json:"havdalahDate"`
	Timezone          *string `json:"timezone"`
	RangeStart        string  `json:"rangeStart"`
	RangeEnd          string  `json:"rangeEnd"`

	ErevShabbatDate          *string `json:"erevShabbatDate"`
	YomShabbatDate           *string `json:"yomShabbatDate"`
	EndsIntoYomTov           bool    `json:"endsIntoYomTov"`
	ParashaReplacedByHoliday bool    `json:"parashaReplacedByHoliday"`
}

// Today is the body of GET /api/today.
type Today struct {
	Today string `json:"today"`
}

// Error is the body of every non-2xx JSON response.
type Error struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// FormatHolidays renders occurrences in order. The result is never nil so
// an empty window encodes as [].
func FormatHolidays(occs []model.HolidayOccurrence) []Holiday {
	out := make([]Holiday, 0, len(occs))
	for _, o := range occs {
		out = append(out, Holiday{
			Title:       o.Title,
			RawTitle:    o.RawTitle,
			HebrewTitle: o.HebrewTitle,
			Date:        model.FormatDate(o.Date),
			HebrewDate:  o.HebrewDate,
			Categories:  o.Categories.Names(),
			Description: o.Description,
		})
	}
	return out
}

// FormatShabbat renders one Shabbat week. A double parasha has its
// summaries joined with a space and its verse ranges with "; ".
func FormatShabbat(info model.ShabbatWeekInfo) Shabbat {
	out := Shabbat{
		Timezone:                 optional(info.TimezoneID),
		RangeStart:               model.FormatDate(info.Window.Start),
		RangeEnd:                 model.FormatDate(info.Window.End),
		ErevShabbatDate:          optionalDate(info.ErevShabbat),
		YomShabbatDate:           optionalDate(info.YomShabbat),
		EndsIntoYomTov:           info.EndsIntoYomTov,
		ParashaReplacedByHoliday: info.ParashaReplacedByHoliday,
	}
	if c := info.Candle; c != nil {
		out.CandleTime = optional(c.Time)
		out.CandleMemo = optional(c.Memo)
		out.CandleDate = optional(model.FormatDate(c.Date))
	}
	if p := info.Parasha; p != nil {
		out.ParashaTitle = optional(p.Title)
		out.ParashaHebrew = optional(p.Hebrew)
		out.ParashaDate = optional(model.FormatDate(p.Date))
		out.ParashaHebrewDate = optional(p.HebrewDate)
		out.ParashaMemo = optional(p.Memo)
		out.ParashaKey = optional(p.Key)
		if len(p.Readings) > 0 {
			blurbs := make([]string, 0, len(p.Readings))
			verses := make([]string, 0, len(p.Readings))
			for _, r := range p.Readings {
				blurbs = append(blurbs, r.Blurb)
				verses = append(verses, r.Verses)
			}
			out.ParashaSummary = optional(strings.Join(blurbs, " "))
			out.ParashaRange = optional(strings.Join(verses, "; "))
		}
	}
	if h := info.Havdalah; h != nil {
		out.HavdalahTime = optional(h.Time)
		out.HavdalahMemo = optional(h.Memo)
		out.HavdalahDate = optional(model.FormatDate(h.Date))
	}
	return out
}

// optional maps the empty string to null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	return optional(model.FormatDate(t))
}

// Value dereferences an optional field, returning "" for null.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
