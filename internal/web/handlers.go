package web

import (
	"net/http"
	"time"

	"yomtov/internal/api"
	"yomtov/internal/ics"
	appLog "yomtov/internal/log"
	"yomtov/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	writeCacheable(w, r, api.Today{Today: s.today.Today()})
}

// handleHolidaysToday is GET /api/holidays/{date} anchored on the server's
// own today.
func (s *Server) handleHolidaysToday(w http.ResponseWriter, r *http.Request) {
	s.serveHolidays(w, r, s.today.Date())
}

// handleHolidays returns the upcoming holidays after {date}.
//
// GET /api/holidays/2024-03-01?minorFasts=false&modern=true
//   - minorFasts, roshChodesh, modern, specialShabbatot: override the
//     configured holiday families
func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	anchor, err := parseDateParam(r.PathValue("date"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.serveHolidays(w, r, anchor)
}

func (s *Server) serveHolidays(w http.ResponseWriter, r *http.Request, anchor time.Time) {
	occs, ok := s.holidays(w, r, anchor)
	if !ok {
		return
	}
	writeCacheable(w, r, api.FormatHolidays(occs))
}

// handleHolidaysICS serves the same occurrences as an iCalendar feed.
func (s *Server) handleHolidaysICS(w http.ResponseWriter, r *http.Request) {
	anchor, err := parseDateParam(r.PathValue("date"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	occs, ok := s.holidays(w, r, anchor)
	if !ok {
		return
	}

	body := ics.Feed("Holidays after "+model.FormatDate(anchor), occs, anchor)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) holidays(w http.ResponseWriter, r *http.Request, anchor time.Time) ([]model.HolidayOccurrence, bool) {
	flags, err := holidayFlags(r.URL.Query(), s.cfg.HolidayFlags())
	if err != nil {
		writeFailure(w, r, err)
		return nil, false
	}

	appLog.Debug("api holidays request",
		"anchor", model.FormatDate(anchor),
		"minor_fasts", flags.MinorFasts,
		"rosh_chodesh", flags.RoshChodesh,
		"modern", flags.Modern,
		"special_shabbatot", flags.SpecialShabbatot,
	)

	occs, err := s.svc.Holidays(r.Context(), anchor, flags)
	if err != nil {
		writeFailure(w, r, err)
		return nil, false
	}
	return occs, true
}

// handleShabbat returns candle lighting, parasha and Havdalah for the week
// starting at {date}.
//
// GET /api/shabbat/2024-03-01?latitude=40.71&longitude=-74.01&timezone=America/New_York
//   - altitude is optional (meters)
//   - without any location parameter only the parasha is returned
func (s *Server) handleShabbat(w http.ResponseWriter, r *http.Request) {
	anchor, err := parseDateParam(r.PathValue("date"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	loc, err := parseLocation(r.URL.Query())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	appLog.Debug("api shabbat request", "anchor", model.FormatDate(anchor), "located", loc != nil)

	info, err := s.svc.Shabbat(r.Context(), anchor, loc, s.cfg.ShabbatFlags())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeCacheable(w, r, api.FormatShabbat(info))
}
