// Package ics renders holiday occurrences as an iCalendar feed.
package ics

import (
	"regexp"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"yomtov/internal/model"
)

// ProductID identifies feeds produced by this service.
const ProductID = "-//yomtov//Holidays//EN"

// UIDDomain is the right-hand side of every event UID.
const UIDDomain = "yomtov"

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug reduces a title to lower-case ASCII words joined by hyphens.
func Slug(title string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "event"
	}
	return s
}

// UID is stable per occurrence: the same holiday on the same date always
// yields the same UID, so calendar clients update instead of duplicating.
func UID(o model.HolidayOccurrence) string {
	return model.FormatDate(o.Date) + "-" + Slug(o.Title) + "@" + UIDDomain
}

// Feed builds one all-day VEVENT per occurrence. stamp is written as
// DTSTAMP on every event.
func Feed(name string, occs []model.HolidayOccurrence, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, o := range occs {
		ev := cal.AddEvent(UID(o))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetSummary(o.Title)
		if desc := description(o); desc != "" {
			ev.SetDescription(desc)
		}
		ev.SetAllDayStartAt(o.Date)
		ev.SetAllDayEndAt(o.Date.AddDate(0, 0, 1))
		if names := o.Categories.Names(); len(names) > 0 {
			ev.SetProperty(ical.ComponentPropertyCategories, strings.Join(names, ","))
		}
	}
	return cal.Serialize()
}

func description(o model.HolidayOccurrence) string {
	parts := make([]string, 0, 2)
	if o.HebrewTitle != "" {
		parts = append(parts, o.HebrewTitle)
	}
	if o.HebrewDate != "" {
		parts = append(parts, o.HebrewDate)
	}
	return strings.Join(parts, " / ")
}
