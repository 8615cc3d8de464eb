package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"yomtov/internal/details"
	"yomtov/internal/engine"
	apperrors "yomtov/internal/errors"
	"yomtov/internal/model"
)

func d(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func holiday(desc, date string) model.RawEvent {
	return model.RawEvent{
		Description:    desc,
		Categories:     model.CategoryHoliday,
		CivilDate:      d(date),
		LocalizedBrief: "he:" + desc,
		HebrewDateText: "hd:" + date,
	}
}

func TestClassifyRoutesByTag(t *testing.T) {
	events := []model.RawEvent{
		{Description: "Candle lighting", Categories: model.CategoryCandleLighting, FormattedTime: "18:05"},
		holiday("Purim", "2024-03-24"),
		{Description: "Parashat Tzav", Categories: model.CategoryParsha},
		{Description: "Omer 10", Categories: 0},
		{Description: "Rosh Chodesh Nisan", Categories: model.CategoryHoliday | model.CategoryRoshChodesh},
		{Description: "Havdalah", Categories: model.CategoryHavdalah, FormattedTime: "19:10"},
		{Description: "Candle lighting", Categories: model.CategoryCandleLighting, FormattedTime: "19:20"},
	}

	b := Classify(events)
	if len(b.CandleLighting) != 2 || len(b.Havdalah) != 1 || len(b.Parsha) != 1 || len(b.Holidays) != 2 {
		t.Fatalf("unexpected bucket sizes: candles=%d havdalah=%d parsha=%d holidays=%d",
			len(b.CandleLighting), len(b.Havdalah), len(b.Parsha), len(b.Holidays))
	}
	if b.CandleLighting[0].FormattedTime != "18:05" || b.CandleLighting[1].FormattedTime != "19:20" {
		t.Fatalf("candle bucket lost input order: %+v", b.CandleLighting)
	}
	if b.Holidays[0].Description != "Purim" || b.Holidays[1].Description != "Rosh Chodesh Nisan" {
		t.Fatalf("holiday bucket lost input order: %+v", b.Holidays)
	}
}

func TestClassifyEmpty(t *testing.T) {
	b := Classify(nil)
	if b.Holidays != nil || b.CandleLighting != nil || b.Parsha != nil || b.Havdalah != nil {
		t.Fatalf("expected empty buckets, got %+v", b)
	}
}

func TestDedupeScansWholeInput(t *testing.T) {
	// Sukkot repeats for seven days between other holidays; everything after
	// the first repeat must still come through.
	events := []model.RawEvent{
		holiday("Sukkot", "2024-10-17"),
		holiday("Sukkot", "2024-10-18"),
		holiday("Sukkot", "2024-10-19"),
		holiday("Shmini Atzeret", "2024-10-24"),
		holiday("Sukkot", "2024-10-20"),
		holiday("Simchat Torah", "2024-10-25"),
		holiday("Chanukah", "2024-12-25"),
		holiday("Chanukah", "2024-12-26"),
		holiday("Purim", "2025-03-14"),
		holiday("Sukkot", "2025-10-07"),
	}

	got := Dedupe(events)
	want := []struct{ title, date string }{
		{"Sukkot", "2024-10-17"},
		{"Shmini Atzeret", "2024-10-24"},
		{"Simchat Torah", "2024-10-25"},
		{"Chanukah", "2024-12-25"},
		{"Purim", "2025-03-14"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Title != w.title || model.FormatDate(got[i].Date) != w.date {
			t.Errorf("occurrence[%d] = %s %s, want %s %s",
				i, got[i].Title, model.FormatDate(got[i].Date), w.title, w.date)
		}
	}
}

func TestDedupeCountEqualsDistinctDescriptions(t *testing.T) {
	base := d("2024-01-01")
	descs := []string{"A", "B", "A", "C", "B", "B", "D", "A", "E", "C"}
	events := make([]model.RawEvent, 0, len(descs))
	distinct := map[string]bool{}
	for i, desc := range descs {
		events = append(events, model.RawEvent{Description: desc, Categories: model.CategoryHoliday, CivilDate: base.AddDate(0, 0, i)})
		distinct[desc] = true
	}

	got := Dedupe(events)
	if len(got) != len(distinct) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(distinct))
	}
	order := []string{"A", "B", "C", "D", "E"}
	for i, o := range order {
		if got[i].RawTitle != o {
			t.Errorf("occurrence[%d] = %s, want %s", i, got[i].RawTitle, o)
		}
	}
}

func TestDedupeByTitleCollapsesObserved(t *testing.T) {
	events := []model.RawEvent{
		holiday("Yom HaAtzma'ut", "2024-05-14"),
		holiday("Yom HaAtzma'ut (observed)", "2024-05-15"),
	}
	if got := Dedupe(events); len(got) != 2 {
		t.Fatalf("description dedupe should keep both, got %d", len(got))
	}
	got := DedupeBy(events, ByTitle)
	if len(got) != 1 || got[0].Title != "Yom HaAtzma'ut" || got[0].RawTitle != "Yom HaAtzma'ut" {
		t.Fatalf("unexpected title dedupe result: %+v", got)
	}
}

func TestDedupeCopiesFields(t *testing.T) {
	got := Dedupe([]model.RawEvent{holiday("Purim (observed)", "2024-03-24")})
	if len(got) != 1 {
		t.Fatalf("expected one occurrence, got %d", len(got))
	}
	o := got[0]
	if o.Title != "Purim" || o.RawTitle != "Purim (observed)" || o.HebrewTitle != "he:Purim (observed)" ||
		o.HebrewDate != "hd:2024-03-24" || !o.Categories.Has(model.CategoryHoliday) {
		t.Fatalf("unexpected occurrence: %+v", o)
	}
}

func candles(date, hhmm string) model.RawEvent {
	return model.RawEvent{Description: "Candle lighting", Categories: model.CategoryCandleLighting, CivilDate: d(date), FormattedTime: hhmm}
}

func havdalah(date, hhmm string) model.RawEvent {
	return model.RawEvent{Description: "Havdalah", Categories: model.CategoryHavdalah, CivilDate: d(date), FormattedTime: hhmm}
}

func TestShabbatInfoCandleAndHavdalahWithoutParasha(t *testing.T) {
	friday := candles("2024-03-01", "18:05")
	friday.Memo = "Parashat Ki Tisa"
	b := Classify([]model.RawEvent{friday, havdalah("2024-03-02", "19:10")})

	info := ShabbatInfo(b, d("2024-03-02"))
	if info.Candle == nil || info.Candle.Time != "18:05" || info.Candle.Memo != "Parashat Ki Tisa" {
		t.Fatalf("unexpected candle: %+v", info.Candle)
	}
	if info.Parasha != nil {
		t.Fatalf("expected no parasha, got %+v", info.Parasha)
	}
	if info.Havdalah == nil || info.Havdalah.Time != "19:10" {
		t.Fatalf("unexpected havdalah: %+v", info.Havdalah)
	}
	if info.EndsIntoYomTov || info.ParashaReplacedByHoliday {
		t.Fatalf("unexpected signals: %+v", info)
	}
	if model.FormatDate(info.ErevShabbat) != "2024-03-01" || model.FormatDate(info.YomShabbat) != "2024-03-02" {
		t.Fatalf("unexpected days: %s %s", model.FormatDate(info.ErevShabbat), model.FormatDate(info.YomShabbat))
	}
}

func TestShabbatInfoIgnoresMidweekFestival(t *testing.T) {
	// Shavuot 5784 runs Tuesday night to Thursday night before Shabbat Nasso.
	b := Classify([]model.RawEvent{
		candles("2024-06-11", "20:10"),
		holiday("Erev Shavuot", "2024-06-11"),
		candles("2024-06-12", "21:15"),
		havdalah("2024-06-13", "21:16"),
		candles("2024-06-14", "20:13"),
		{Description: "Parashat Nasso", Categories: model.CategoryParsha, CivilDate: d("2024-06-15")},
		havdalah("2024-06-15", "21:19"),
	})

	info := ShabbatInfo(b, d("2024-06-15"))
	if info.Candle == nil || info.Candle.Time != "20:13" || model.FormatDate(info.Candle.Date) != "2024-06-14" {
		t.Fatalf("expected Friday candle lighting, got %+v", info.Candle)
	}
	if info.Havdalah == nil || info.Havdalah.Time != "21:19" || model.FormatDate(info.Havdalah.Date) != "2024-06-15" {
		t.Fatalf("expected Saturday havdalah, got %+v", info.Havdalah)
	}
	if info.Parasha == nil || info.Parasha.Key != "nasso" {
		t.Fatalf("unexpected parasha: %+v", info.Parasha)
	}
	if info.EndsIntoYomTov {
		t.Fatal("shabbat Nasso does not run into a festival")
	}
}

func TestShabbatInfoEndsIntoYomTov(t *testing.T) {
	// Pesach 5785 begins on Saturday night.
	b := Classify([]model.RawEvent{
		candles("2025-04-11", "19:14"),
		{Description: "Parashat Tzav", Categories: model.CategoryParsha, CivilDate: d("2025-04-12")},
		holiday("Erev Pesach", "2025-04-12"),
		candles("2025-04-12", "20:15"),
		candles("2025-04-13", "20:16"),
		havdalah("2025-04-14", "20:14"),
	})

	info := ShabbatInfo(b, d("2025-04-12"))
	if info.Candle == nil || info.Candle.Time != "19:14" {
		t.Fatalf("unexpected candle: %+v", info.Candle)
	}
	if info.Havdalah != nil {
		t.Fatalf("festival havdalah reported for shabbat: %+v", info.Havdalah)
	}
	if !info.EndsIntoYomTov {
		t.Fatal("expected EndsIntoYomTov")
	}
}

func TestShabbatInfoParashaReplacedByHoliday(t *testing.T) {
	cholHamoed := holiday("Pesach V (CH''M)", "2024-04-27")
	cholHamoed.Categories |= model.CategoryMajor | model.CategoryCholHamoed
	b := Classify([]model.RawEvent{
		candles("2024-04-26", "19:33"),
		cholHamoed,
		havdalah("2024-04-27", "20:41"),
	})

	info := ShabbatInfo(b, d("2024-04-27"))
	if info.Parasha != nil || !info.ParashaReplacedByHoliday {
		t.Fatalf("expected the reading to be replaced, got %+v", info)
	}

	minor := Classify([]model.RawEvent{holiday("Rosh Chodesh Sivan", "2024-06-08")})
	if ShabbatInfo(minor, d("2024-06-08")).ParashaReplacedByHoliday {
		t.Fatal("a minor holiday does not replace the reading")
	}
}

func TestShabbatInfoEmpty(t *testing.T) {
	info := ShabbatInfo(Buckets{}, d("2024-03-02"))
	if info.Candle != nil || info.Parasha != nil || info.Havdalah != nil || info.EndsIntoYomTov {
		t.Fatalf("expected empty info, got %+v", info)
	}
}

func TestServiceHolidaysBuildsUpcomingQuery(t *testing.T) {
	var got model.Query
	eng := engine.Func(func(_ context.Context, q model.Query) ([]model.RawEvent, error) {
		got = q
		return []model.RawEvent{
			holiday("Purim", "2024-03-24"),
			holiday("Rosh Chodesh Adar II", "2024-03-11"),
			holiday("Rosh Chodesh Adar II", "2024-03-10"),
			{Description: "Candle lighting", Categories: model.CategoryCandleLighting, CivilDate: d("2024-03-08")},
			holiday("Purim", "2025-03-14"),
		}, nil
	})

	occ, err := NewService(eng, nil).Holidays(context.Background(), d("2024-03-01"), model.Flags{
		CandleLighting: true, Sedrot: true, MinorFasts: true,
	})
	if err != nil {
		t.Fatalf("holidays: %v", err)
	}
	if model.FormatDate(got.Window.Start) != "2024-03-02" || model.FormatDate(got.Window.End) != "2025-06-02" {
		t.Fatalf("unexpected window: %s .. %s", model.FormatDate(got.Window.Start), model.FormatDate(got.Window.End))
	}
	if got.Flags.CandleLighting || got.Flags.Sedrot || !got.Flags.MinorFasts {
		t.Fatalf("unexpected flags sent to engine: %+v", got.Flags)
	}
	if got.Location != nil {
		t.Fatal("holiday query must not carry a location")
	}

	if len(occ) != 2 {
		t.Fatalf("expected 2 occurrences, got %d: %+v", len(occ), occ)
	}
	if occ[0].Title != "Rosh Chodesh Adar II" || model.FormatDate(occ[0].Date) != "2024-03-10" {
		t.Fatalf("expected earliest Rosh Chodesh first, got %+v", occ[0])
	}
	if occ[1].Title != "Purim" || model.FormatDate(occ[1].Date) != "2024-03-24" {
		t.Fatalf("unexpected second occurrence: %+v", occ[1])
	}
}

func TestServiceShabbatQueryFlags(t *testing.T) {
	var got model.Query
	eng := engine.Func(func(_ context.Context, q model.Query) ([]model.RawEvent, error) {
		got = q
		return nil, nil
	})
	svc := NewService(eng, nil)
	loc := &model.Location{Latitude: 31.77, Longitude: 35.21, TimezoneID: "Asia/Jerusalem"}

	info, err := svc.Shabbat(context.Background(), d("2024-03-04"), loc, model.Flags{CandleLightingMins: 40})
	if err != nil {
		t.Fatalf("shabbat: %v", err)
	}
	if !got.Flags.CandleLighting || !got.Flags.Sedrot || got.Flags.CandleLightingMins != 40 {
		t.Fatalf("unexpected flags: %+v", got.Flags)
	}
	if model.FormatDate(got.Window.Start) != "2024-03-04" || model.FormatDate(got.Window.End) != "2024-03-11" {
		t.Fatalf("unexpected window: %+v", got.Window)
	}
	if info.TimezoneID != "Asia/Jerusalem" || info.Candle != nil {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, err := svc.Shabbat(context.Background(), d("2024-03-04"), nil, model.Flags{}); err != nil {
		t.Fatalf("shabbat without location: %v", err)
	}
	if got.Flags.CandleLighting {
		t.Fatal("candle lighting requested without a location")
	}
}

func TestServicePropagatesEngineErrors(t *testing.T) {
	boom := apperrors.Wrap(errors.New("upstream down"), apperrors.CategoryEngineFailure, "engine_status")
	eng := engine.Func(func(context.Context, model.Query) ([]model.RawEvent, error) {
		return []model.RawEvent{holiday("Purim", "2024-03-24")}, boom
	})
	svc := NewService(eng, nil)

	occ, err := svc.Holidays(context.Background(), d("2024-03-01"), model.Flags{})
	if !errors.Is(err, boom) || occ != nil {
		t.Fatalf("expected engine error and no partial result, got %v %+v", err, occ)
	}
	if apperrors.CategoryOf(err) != apperrors.CategoryEngineFailure {
		t.Fatalf("category lost: %q", apperrors.CategoryOf(err))
	}
	if _, err := svc.Shabbat(context.Background(), d("2024-03-01"), nil, model.Flags{}); !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got %v", err)
	}
}

func TestServiceWithoutEngine(t *testing.T) {
	if _, err := NewService(nil, nil).Holidays(context.Background(), d("2024-03-01"), model.Flags{}); err == nil {
		t.Fatal("expected error without engine")
	}
}

func TestServiceShabbatOnSaturdayIncludesFriday(t *testing.T) {
	var got model.Query
	eng := engine.Func(func(_ context.Context, q model.Query) ([]model.RawEvent, error) {
		got = q
		return []model.RawEvent{
			candles("2024-06-14", "20:13"),
			{Description: "Parashat Nasso", Categories: model.CategoryParsha, CivilDate: d("2024-06-15")},
			havdalah("2024-06-15", "21:19"),
			candles("2024-06-21", "20:15"),
		}, nil
	})
	loc := &model.Location{Latitude: 40.7128, Longitude: -74.006, TimezoneID: "America/New_York"}

	info, err := NewService(eng, nil).Shabbat(context.Background(), d("2024-06-15"), loc, model.Flags{})
	if err != nil {
		t.Fatalf("shabbat: %v", err)
	}
	if model.FormatDate(got.Window.Start) != "2024-06-14" || model.FormatDate(got.Window.End) != "2024-06-22" {
		t.Fatalf("unexpected engine window: %s .. %s", model.FormatDate(got.Window.Start), model.FormatDate(got.Window.End))
	}
	if model.FormatDate(info.Window.Start) != "2024-06-15" || model.FormatDate(info.Window.End) != "2024-06-22" {
		t.Fatalf("unexpected reported window: %+v", info.Window)
	}
	if info.Candle == nil || info.Candle.Time != "20:13" || info.Havdalah == nil || info.Havdalah.Time != "21:19" {
		t.Fatalf("expected this Shabbat's times, got candle=%+v havdalah=%+v", info.Candle, info.Havdalah)
	}
}

func TestServiceAddsDetails(t *testing.T) {
	cat, err := details.Builtin()
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	eng := engine.Func(func(_ context.Context, q model.Query) ([]model.RawEvent, error) {
		if q.Flags.Sedrot {
			return []model.RawEvent{
				{Description: "Parashat Vayakhel-Pekudei", Categories: model.CategoryParsha, CivilDate: d("2025-03-22")},
			}, nil
		}
		return []model.RawEvent{holiday("Erev Purim", "2025-03-13"), holiday("Omer 3", "2025-04-15")}, nil
	})
	svc := NewService(eng, cat)

	occ, err := svc.Holidays(context.Background(), d("2025-03-01"), model.Flags{})
	if err != nil {
		t.Fatalf("holidays: %v", err)
	}
	if len(occ) != 2 || occ[0].Description == "" || occ[1].Description != "" {
		t.Fatalf("unexpected descriptions: %+v", occ)
	}

	info, err := svc.Shabbat(context.Background(), d("2025-03-16"), nil, model.Flags{})
	if err != nil {
		t.Fatalf("shabbat: %v", err)
	}
	if info.Parasha == nil || len(info.Parasha.Readings) != 2 {
		t.Fatalf("expected a double reading, got %+v", info.Parasha)
	}
	if info.Parasha.Readings[0].Key != "vayakhel" || info.Parasha.Readings[1].Key != "pekudei" {
		t.Fatalf("unexpected readings: %+v", info.Parasha.Readings)
	}
}
