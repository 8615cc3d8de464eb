// Package calendar is the request pipeline: it builds the engine query for
// an anchor date, classifies the returned events, and shapes holidays and
// Shabbat information for the response formatter.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"yomtov/internal/details"
	"yomtov/internal/engine"
	apperrors "yomtov/internal/errors"
	"yomtov/internal/model"
	"yomtov/internal/rangepolicy"
)

// Service runs the pipeline against one engine. It holds no mutable state
// and is safe for concurrent use.
type Service struct {
	engine  engine.Engine
	details *details.Catalog
}

// NewService returns a Service querying e. Holidays and parshiot are
// described from cat; a nil cat leaves descriptions empty.
func NewService(e engine.Engine, cat *details.Catalog) *Service {
	return &Service{engine: e, details: cat}
}

// Holidays returns one occurrence per distinct holiday title in the holiday
// window of anchor, ascending by date.
//
// Candle lighting and sedrot are always turned off for this query; the
// remaining flags choose which holiday families the engine emits.
func (s *Service) Holidays(ctx context.Context, anchor time.Time, flags model.Flags) ([]model.HolidayOccurrence, error) {
	if s.engine == nil {
		return nil, apperrors.Wrap(errors.New("calendar: no engine configured"), apperrors.CategoryInternal, "no_engine")
	}
	flags.CandleLighting = false
	flags.Sedrot = false

	q := model.Query{
		Anchor: anchor,
		Window: rangepolicy.HolidayWindow(anchor),
		Flags:  flags,
	}
	events, err := s.engine.Events(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("holidays %s: %w", model.FormatDate(anchor), err)
	}

	b := Classify(sortChronological(events))
	occs := DedupeBy(b.Holidays, ByTitle)
	for i := range occs {
		occs[i].Description = s.details.HolidayDescription(occs[i].RawTitle)
	}
	return occs, nil
}

// Shabbat returns the candle-lighting, parasha and Havdalah information of
// the Shabbat inside the window of anchor. Without a location only the
// parasha can be found; the timed fields stay nil.
//
// On a Saturday anchor the engine is queried from the day before, so that
// Shabbat's own candle lighting is found.
func (s *Service) Shabbat(ctx context.Context, anchor time.Time, loc *model.Location, flags model.Flags) (model.ShabbatWeekInfo, error) {
	if s.engine == nil {
		return model.ShabbatWeekInfo{}, apperrors.Wrap(errors.New("calendar: no engine configured"), apperrors.CategoryInternal, "no_engine")
	}
	flags.Sedrot = true
	flags.CandleLighting = loc != nil

	q := model.Query{
		Anchor:   anchor,
		Window:   rangepolicy.ShabbatQueryWindow(anchor),
		Location: loc,
		Flags:    flags,
	}
	events, err := s.engine.Events(ctx, q)
	if err != nil {
		return model.ShabbatWeekInfo{}, fmt.Errorf("shabbat %s: %w", model.FormatDate(anchor), err)
	}

	_, saturday := rangepolicy.ShabbatDays(anchor)
	info := ShabbatInfo(Classify(sortChronological(events)), saturday)
	info.Window = rangepolicy.ShabbatWindow(anchor)
	if p := info.Parasha; p != nil {
		p.Readings = s.details.Parsha(p.Name)
	}
	if loc != nil {
		info.TimezoneID = loc.TimezoneID
	}
	return info, nil
}

// sortChronological orders events by civil date, keeping the engine's order
// within a day.
func sortChronological(events []model.RawEvent) []model.RawEvent {
	out := make([]model.RawEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CivilDate.Before(out[j].CivilDate)
	})
	return out
}
