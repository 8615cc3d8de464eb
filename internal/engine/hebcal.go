package engine

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kaptinlin/jsonschema"

	apperrors "yomtov/internal/errors"
	appLog "yomtov/internal/log"
	"yomtov/internal/model"
)

const (
	DefaultBaseURL = "https://www.hebcal.com"
	DefaultTimeout = 15 * time.Second

	calendarPath = "/hebcal"
)

//go:embed hebcal.schema.json
var hebcalSchemaJSON []byte

var hebcalSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	return compiler.Compile(hebcalSchemaJSON)
})

// Hebcal queries the Hebcal REST calendar API.
type Hebcal struct {
	client *resty.Client
}

// NewHebcal builds a Hebcal engine. An empty baseURL uses DefaultBaseURL and
// a non-positive timeout uses DefaultTimeout. Retries are left disabled.
func NewHebcal(baseURL string, timeout time.Duration) *Hebcal {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "yomtov/1")
	return &Hebcal{client: client}
}

// hebcalResponse is the subset of the Hebcal JSON payload we consume.
type hebcalResponse struct {
	Location struct {
		TZID string `json:"tzid"`
	} `json:"location"`
	Items []hebcalItem `json:"items"`
}

type hebcalItem struct {
	Title     string `json:"title"`
	TitleOrig string `json:"title_orig"`
	Date      string `json:"date"`
	Category  string `json:"category"`
	Subcat    string `json:"subcat"`
	Hebrew    string `json:"hebrew"`
	HDate     string `json:"hdate"`
	Memo      string `json:"memo"`
}

// Events fetches and maps the events of q.Window.
func (h *Hebcal) Events(ctx context.Context, q model.Query) ([]model.RawEvent, error) {
	if !q.Window.Start.Before(q.Window.End) {
		return nil, apperrors.Wrap(errors.New("engine: empty query window"), apperrors.CategoryInternal, "empty_window")
	}

	params := queryParams(q)
	appLog.Debug("hebcal request", "start", params["start"], "end", params["end"], "geo", params["geo"])

	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(calendarPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.Wrap(fmt.Errorf("engine: request abandoned: %w", ctxErr), apperrors.CategoryEngineFailure, "engine_cancelled")
		}
		return nil, apperrors.Wrap(fmt.Errorf("engine: request failed: %w", err), apperrors.CategoryEngineFailure, "engine_unreachable")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apperrors.Wrap(fmt.Errorf("engine: unexpected status %s", resp.Status()), apperrors.CategoryEngineFailure, "engine_status")
	}

	events, err := decodeHebcal(resp.Body())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryEngineFailure, "engine_malformed")
	}
	return events, nil
}

// queryParams maps a query onto Hebcal's parameter names. Hebcal's end date
// is inclusive, so the exclusive window end is pulled back one day.
func queryParams(q model.Query) map[string]string {
	p := map[string]string{
		"v":     "1",
		"cfg":   "json",
		"start": model.FormatDate(q.Window.Start),
		"end":   model.FormatDate(q.Window.End.AddDate(0, 0, -1)),
		"maj":   "on",
		"min":   "on",
	}
	on := func(key string, enabled bool) {
		if enabled {
			p[key] = "on"
		}
	}
	on("mod", q.Flags.Modern)
	on("nx", q.Flags.RoshChodesh)
	on("mf", q.Flags.MinorFasts)
	on("ss", q.Flags.SpecialShabbatot)
	on("s", q.Flags.Sedrot)

	loc := q.Location
	if loc == nil {
		p["geo"] = "none"
		return p
	}
	p["geo"] = "pos"
	p["latitude"] = strconv.FormatFloat(loc.Latitude, 'f', -1, 64)
	p["longitude"] = strconv.FormatFloat(loc.Longitude, 'f', -1, 64)
	p["tzid"] = loc.TimezoneID
	if loc.Elevation != 0 {
		p["ue"] = "on"
		p["elev"] = strconv.FormatFloat(loc.Elevation, 'f', -1, 64)
	}
	if q.Flags.CandleLighting {
		p["c"] = "on"
		if q.Flags.CandleLightingMins > 0 {
			p["b"] = strconv.Itoa(q.Flags.CandleLightingMins)
		}
		if q.Flags.HavdalahMins > 0 {
			p["m"] = strconv.Itoa(q.Flags.HavdalahMins)
		} else {
			p["M"] = "on"
		}
	}
	return p
}

// decodeHebcal validates the payload against the embedded schema and maps
// every item. An item with an unparsable date fails the whole payload.
func decodeHebcal(body []byte) ([]model.RawEvent, error) {
	schema, err := hebcalSchema()
	if err != nil {
		return nil, fmt.Errorf("engine: compile schema: %w", err)
	}
	if result := schema.ValidateJSON(body); !result.IsValid() {
		return nil, fmt.Errorf("engine: payload failed schema validation: %v", result.Errors)
	}

	var payload hebcalResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("engine: decode payload: %w", err)
	}

	events := make([]model.RawEvent, 0, len(payload.Items))
	for i, it := range payload.Items {
		ev, err := it.toRawEvent()
		if err != nil {
			return nil, fmt.Errorf("engine: item %d (%q): %w", i, it.Title, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func (it hebcalItem) toRawEvent() (model.RawEvent, error) {
	ev := model.RawEvent{
		Description:    it.Title,
		Categories:     categoriesFor(it.Category, it.Subcat),
		HebrewDateText: it.HDate,
		LocalizedBrief: it.Hebrew,
		Memo:           it.Memo,
	}
	// Hebcal files Chol HaMoed days under "major" and marks them in the title.
	if ev.Categories.Has(model.CategoryHoliday) && strings.Contains(it.Title, "(CH''M)") {
		ev.Categories |= model.CategoryCholHamoed
	}

	if len(it.Date) == len(model.DateLayout) {
		d, err := model.ParseDate(it.Date)
		if err != nil {
			return ev, err
		}
		ev.CivilDate = d
		return ev, nil
	}

	// Timed events carry a full timestamp with the location's offset.
	ts, err := time.Parse(time.RFC3339, it.Date)
	if err != nil {
		return ev, fmt.Errorf("invalid timestamp %q: %w", it.Date, err)
	}
	ev.CivilDate = model.CivilDate(ts)
	ev.FormattedTime = ts.Format("15:04")
	if it.TitleOrig != "" {
		ev.Description = it.TitleOrig
	}
	return ev, nil
}

// categoriesFor maps Hebcal's category/subcat strings to tags. Unknown
// categories map to the empty set and are ignored downstream.
func categoriesFor(category, subcat string) model.Category {
	switch category {
	case "holiday":
		c := model.CategoryHoliday
		switch subcat {
		case "major":
			c |= model.CategoryMajor
		case "minor":
			c |= model.CategoryMinor
		case "modern":
			c |= model.CategoryModern
		case "fast":
			c |= model.CategoryMinorFast
		case "shabbat":
			c |= model.CategorySpecialShabbat
		}
		return c
	case "roshchodesh":
		return model.CategoryHoliday | model.CategoryRoshChodesh
	case "candles":
		return model.CategoryCandleLighting
	case "havdalah":
		return model.CategoryHavdalah
	case "parashat":
		return model.CategoryParsha
	default:
		return 0
	}
}
