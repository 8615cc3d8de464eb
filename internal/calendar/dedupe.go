package calendar

import "yomtov/internal/model"

// KeyFunc derives the identity used to detect repeated holidays.
type KeyFunc func(model.RawEvent) string

// ByDescription treats events with the same engine description as one holiday.
func ByDescription(ev model.RawEvent) string {
	return ev.Description
}

// ByTitle treats events whose normalized titles match as one holiday. It is
// coarser than ByDescription: "X" and "X (observed)" collapse together.
func ByTitle(ev model.RawEvent) string {
	return NormalizeTitle(ev.Description)
}

// Dedupe keeps the first occurrence of every distinct description.
func Dedupe(events []model.RawEvent) []model.HolidayOccurrence {
	return DedupeBy(events, ByDescription)
}

// DedupeBy scans the whole chronologically ordered input once and emits one
// occurrence per distinct key, at its first date. Later repeats are skipped
// and the scan continues; a multi-day festival must not hide the holidays
// that follow it.
func DedupeBy(events []model.RawEvent, key KeyFunc) []model.HolidayOccurrence {
	seen := make(map[string]struct{}, len(events))
	out := make([]model.HolidayOccurrence, 0, len(events))
	for _, ev := range events {
		k := key(ev)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, toOccurrence(ev))
	}
	return out
}

func toOccurrence(ev model.RawEvent) model.HolidayOccurrence {
	return model.HolidayOccurrence{
		Title:       NormalizeTitle(ev.Description),
		RawTitle:    ev.Description,
		HebrewTitle: ev.LocalizedBrief,
		Date:        ev.CivilDate,
		HebrewDate:  ev.HebrewDateText,
		Categories:  ev.Categories,
	}
}
