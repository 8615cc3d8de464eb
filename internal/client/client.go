// Package client calls the yomtov HTTP API. Responses are revalidated with
// If-None-Match; a 304 reuses the body cached for that URL.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"yomtov/internal/api"
	appLog "yomtov/internal/log"
	"yomtov/internal/model"
)

// DefaultTimeout bounds each request unless WithTimeout is given.
const DefaultTimeout = 20 * time.Second

// StatusError is returned for any non-2xx, non-304 response.
type StatusError struct {
	StatusCode int
	Body       api.Error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("yomtov api: status %d", e.StatusCode)
	if e.Body.Error != "" {
		msg += ": " + e.Body.Error
	}
	if e.Body.Code != "" {
		msg += " (" + e.Body.Code + ")"
	}
	return msg
}

type cachedResponse struct {
	etag string
	body []byte
}

// Client is safe for concurrent use.
type Client struct {
	http *resty.Client

	mu    sync.Mutex
	cache map[string]cachedResponse
}

// Option configures a Client in New.
type Option func(*Client)

// WithTimeout replaces DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithBasicAuth sends credentials on every request; an empty username
// sends none.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		if username != "" {
			c.http.SetBasicAuth(username, password)
		}
	}
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
		cache: make(map[string]cachedResponse),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Holidays fetches the holidays after date. All four holiday families are
// sent explicitly so the result does not depend on server defaults.
func (c *Client) Holidays(ctx context.Context, date time.Time, flags model.Flags) ([]api.Holiday, error) {
	q := url.Values{}
	q.Set("minorFasts", strconv.FormatBool(flags.MinorFasts))
	q.Set("roshChodesh", strconv.FormatBool(flags.RoshChodesh))
	q.Set("modern", strconv.FormatBool(flags.Modern))
	q.Set("specialShabbatot", strconv.FormatBool(flags.SpecialShabbatot))

	var out []api.Holiday
	if err := c.getJSON(ctx, "/api/holidays/"+model.FormatDate(date), q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Shabbat fetches the Shabbat week starting at date. A nil location asks
// for the parasha only.
func (c *Client) Shabbat(ctx context.Context, date time.Time, loc *model.Location) (api.Shabbat, error) {
	q := url.Values{}
	if loc != nil {
		q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
		q.Set("timezone", loc.TimezoneID)
		if loc.Elevation != 0 {
			q.Set("altitude", strconv.FormatFloat(loc.Elevation, 'f', -1, 64))
		}
	}

	var out api.Shabbat
	if err := c.getJSON(ctx, "/api/shabbat/"+model.FormatDate(date), q, &out); err != nil {
		return api.Shabbat{}, err
	}
	return out, nil
}

// Today returns the server's current day.
func (c *Client) Today(ctx context.Context) (string, error) {
	var out api.Today
	if err := c.getJSON(ctx, "/api/today", nil, &out); err != nil {
		return "", err
	}
	return out.Today, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	key := path
	if len(q) > 0 {
		key += "?" + q.Encode()
	}

	c.mu.Lock()
	cached, haveCached := c.cache[key]
	c.mu.Unlock()

	req := c.http.R().SetContext(ctx)
	if len(q) > 0 {
		req.SetQueryParamsFromValues(q)
	}
	if haveCached {
		req.SetHeader("If-None-Match", cached.etag)
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("yomtov api: GET %s: %w", path, err)
	}

	var body []byte
	switch {
	case resp.StatusCode() == http.StatusNotModified && haveCached:
		appLog.Debug("api response not modified", "path", key)
		body = cached.body
	case resp.IsSuccess():
		body = resp.Body()
		if etag := resp.Header().Get("ETag"); etag != "" {
			c.mu.Lock()
			c.cache[key] = cachedResponse{etag: etag, body: body}
			c.mu.Unlock()
		}
	default:
		se := &StatusError{StatusCode: resp.StatusCode()}
		_ = json.Unmarshal(resp.Body(), &se.Body)
		return se
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yomtov api: decode %s: %w", path, err)
	}
	return nil
}
