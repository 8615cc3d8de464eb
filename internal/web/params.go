package web

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "yomtov/internal/errors"
	"yomtov/internal/model"
)

func parseDateParam(s string) (time.Time, error) {
	t, err := model.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperrors.Wrap(err, apperrors.CategoryInvalidInput, "invalid_date")
	}
	return t, nil
}

// holidayFlags overlays the optional boolean query parameters on def.
func holidayFlags(q url.Values, def model.Flags) (model.Flags, error) {
	flags := def
	for _, p := range []struct {
		name string
		dst  *bool
	}{
		{"minorFasts", &flags.MinorFasts},
		{"roshChodesh", &flags.RoshChodesh},
		{"modern", &flags.Modern},
		{"specialShabbatot", &flags.SpecialShabbatot},
	} {
		raw, ok := q[p.name]
		if !ok || len(raw) == 0 {
			continue
		}
		v, err := strconv.ParseBool(strings.TrimSpace(raw[0]))
		if err != nil {
			return def, apperrors.InvalidInput("invalid_flag", fmt.Sprintf("%s must be a boolean, got %q", p.name, raw[0]))
		}
		*p.dst = v
	}
	return flags, nil
}

// parseLocation reads latitude, longitude, altitude and timezone. With none
// of them present there is no location; otherwise latitude, longitude and
// timezone are all required and must be valid.
func parseLocation(q url.Values) (*model.Location, error) {
	lat, lon, alt, tz := q.Get("latitude"), q.Get("longitude"), q.Get("altitude"), q.Get("timezone")
	if lat == "" && lon == "" && alt == "" && tz == "" {
		return nil, nil
	}
	if lat == "" || lon == "" || tz == "" {
		return nil, apperrors.InvalidInput("location_incomplete", "latitude, longitude and timezone must be given together")
	}

	latitude, err := parseCoordinate("latitude", lat, 90)
	if err != nil {
		return nil, err
	}
	longitude, err := parseCoordinate("longitude", lon, 180)
	if err != nil {
		return nil, err
	}

	var elevation float64
	if alt != "" {
		elevation, err = strconv.ParseFloat(strings.TrimSpace(alt), 64)
		if err != nil || math.IsNaN(elevation) || math.IsInf(elevation, 0) {
			return nil, apperrors.InvalidInput("invalid_altitude", fmt.Sprintf("altitude must be a finite number, got %q", alt))
		}
	}

	tz = strings.TrimSpace(tz)
	if strings.EqualFold(tz, "local") {
		return nil, apperrors.InvalidInput("invalid_timezone", fmt.Sprintf("unknown timezone %q", tz))
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, apperrors.InvalidInput("invalid_timezone", fmt.Sprintf("unknown timezone %q", tz))
	}

	return &model.Location{
		Latitude:   latitude,
		Longitude:  longitude,
		Elevation:  elevation,
		TimezoneID: tz,
	}, nil
}

func parseCoordinate(name, raw string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.InvalidInput("invalid_"+name, fmt.Sprintf("%s must be a finite number, got %q", name, raw))
	}
	if v < -limit || v > limit {
		return 0, apperrors.InvalidInput("invalid_"+name, fmt.Sprintf("%s %v out of range [-%v, %v]", name, v, limit, limit))
	}
	return v, nil
}
