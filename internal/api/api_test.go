package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"yomtov/internal/model"
)

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFormatHolidays(t *testing.T) {
	got := FormatHolidays([]model.HolidayOccurrence{{
		Title:       "Purim",
		RawTitle:    "Purim (observed)",
		HebrewTitle: "פורים",
		Date:        day("2024-03-24"),
		HebrewDate:  "14 Adar II 5784",
		Categories:  model.CategoryHoliday | model.CategoryMinor,
		Description: "A joyful holiday.",
	}})
	if len(got) != 1 {
		t.Fatalf("len = %d", len(got))
	}
	h := got[0]
	if h.Title != "Purim" || h.RawTitle != "Purim (observed)" || h.Date != "2024-03-24" {
		t.Fatalf("unexpected holiday: %+v", h)
	}
	if h.Description != "A joyful holiday." {
		t.Fatalf("description = %q", h.Description)
	}
	if strings.Join(h.Categories, ",") != "holiday,minor" {
		t.Fatalf("categories = %v", h.Categories)
	}
}

func TestFormatHolidaysEmptyIsArray(t *testing.T) {
	b, err := json.Marshal(FormatHolidays(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "[]" {
		t.Fatalf("got %s, want []", b)
	}
}

func TestFormatShabbatNulls(t *testing.T) {
	info := model.ShabbatWeekInfo{
		Parasha: &model.Parasha{
			Title: "Parashat Ki Tisa",
			Name:  "Ki Tisa",
			Key:   "ki_tisa",
			Date:  day("2024-03-02"),
		},
		Window: model.Window{Start: day("2024-03-01"), End: day("2024-03-08")},
	}
	b, err := json.Marshal(FormatShabbat(info))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"candleTime", "candleMemo", "havdalahTime", "havdalahMemo", "timezone", "parashaMemo", "parashaHebrew", "parashaSummary", "parashaRange", "erevShabbatDate"} {
		v, ok := m[k]
		if !ok {
			t.Fatalf("key %q missing from %s", k, b)
		}
		if v != nil {
			t.Fatalf("%s = %v, want null", k, v)
		}
	}
	if m["parashaTitle"] != "Parashat Ki Tisa" || m["parashaKey"] != "ki_tisa" || m["parashaDate"] != "2024-03-02" {
		t.Fatalf("parasha fields wrong: %s", b)
	}
	if m["rangeStart"] != "2024-03-01" || m["rangeEnd"] != "2024-03-08" {
		t.Fatalf("range wrong: %s", b)
	}
}

func TestFormatShabbatTimed(t *testing.T) {
	info := model.ShabbatWeekInfo{
		Candle:     &model.TimedEvent{Time: "17:27", Memo: "Parashat Ki Tisa", Date: day("2024-03-01")},
		Havdalah:   &model.TimedEvent{Time: "18:36", Date: day("2024-03-02")},
		TimezoneID: "America/New_York",
	}
	got := FormatShabbat(info)
	if Value(got.CandleTime) != "17:27" || Value(got.CandleDate) != "2024-03-01" {
		t.Fatalf("candle = %v %v", Value(got.CandleTime), Value(got.CandleDate))
	}
	if Value(got.HavdalahTime) != "18:36" || got.HavdalahMemo != nil {
		t.Fatalf("havdalah = %v memo=%v", Value(got.HavdalahTime), got.HavdalahMemo)
	}
	if Value(got.Timezone) != "America/New_York" {
		t.Fatalf("timezone = %v", Value(got.Timezone))
	}
}

func TestFormatShabbatDoubleParasha(t *testing.T) {
	info := model.ShabbatWeekInfo{
		Parasha: &model.Parasha{
			Title: "Parashat Vayakhel-Pekudei",
			Readings: []model.Reading{
				{Key: "vayakhel", Verses: "Exodus 35:1–38:20", Blurb: "The Mishkan is built."},
				{Key: "pekudei", Verses: "Exodus 38:21–40:38", Blurb: "The Mishkan is counted."},
			},
		},
		ErevShabbat:              day("2025-03-21"),
		YomShabbat:               day("2025-03-22"),
		EndsIntoYomTov:           true,
		ParashaReplacedByHoliday: false,
	}
	got := FormatShabbat(info)
	if Value(got.ParashaRange) != "Exodus 35:1–38:20; Exodus 38:21–40:38" {
		t.Fatalf("range = %q", Value(got.ParashaRange))
	}
	if Value(got.ParashaSummary) != "The Mishkan is built. The Mishkan is counted." {
		t.Fatalf("summary = %q", Value(got.ParashaSummary))
	}
	if Value(got.ErevShabbatDate) != "2025-03-21" || Value(got.YomShabbatDate) != "2025-03-22" || !got.EndsIntoYomTov {
		t.Fatalf("shabbat days or signals wrong: %+v", got)
	}
}
