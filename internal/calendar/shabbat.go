package calendar

import (
	"time"

	"yomtov/internal/model"
)

// ShabbatInfo picks the fields of the Shabbat falling on saturday from
// classified events. Only events dated on that Shabbat count:
//
//   - candle lighting: the first one dated Friday
//   - Havdalah: the first one dated Saturday; when candles are lit again on
//     Saturday night instead, Havdalah stays nil and EndsIntoYomTov is set
//   - parasha: the first one dated Saturday; when none is read and a major
//     festival or Chol HaMoed falls on Saturday, ParashaReplacedByHoliday
//     is set
//
// Festival candle lighting and Havdalah elsewhere in the window are ignored.
// Missing buckets leave the corresponding field nil.
func ShabbatInfo(b Buckets, saturday time.Time) model.ShabbatWeekInfo {
	saturday = model.CivilDate(saturday)
	friday := saturday.AddDate(0, 0, -1)
	info := model.ShabbatWeekInfo{ErevShabbat: friday, YomShabbat: saturday}

	if ev, ok := firstOn(b.CandleLighting, friday); ok {
		info.Candle = timed(ev)
	}
	if ev, ok := firstOn(b.Havdalah, saturday); ok {
		info.Havdalah = timed(ev)
	} else if _, ok := firstOn(b.CandleLighting, saturday); ok {
		info.EndsIntoYomTov = true
	}

	if ev, ok := firstOn(b.Parsha, saturday); ok {
		name := ParshaName(ev.Description)
		info.Parasha = &model.Parasha{
			Title:      ev.Description,
			Name:       name,
			Key:        ParshaKey(name),
			Hebrew:     ev.LocalizedBrief,
			Date:       ev.CivilDate,
			HebrewDate: ev.HebrewDateText,
			Memo:       ev.Memo,
		}
	} else {
		for _, ev := range b.Holidays {
			if ev.CivilDate.Equal(saturday) &&
				(ev.Categories.Has(model.CategoryMajor) || ev.Categories.Has(model.CategoryCholHamoed)) {
				info.ParashaReplacedByHoliday = true
				break
			}
		}
	}

	return info
}

func firstOn(events []model.RawEvent, day time.Time) (model.RawEvent, bool) {
	for _, ev := range events {
		if ev.CivilDate.Equal(day) {
			return ev, true
		}
	}
	return model.RawEvent{}, false
}

func timed(ev model.RawEvent) *model.TimedEvent {
	return &model.TimedEvent{
		Time:  ev.FormattedTime,
		Memo:  ev.Memo,
		Date:  ev.CivilDate,
		Brief: ev.LocalizedBrief,
	}
}
