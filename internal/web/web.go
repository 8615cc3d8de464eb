// Package web serves the calendar pipeline over HTTP.
package web

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"yomtov/internal/api"
	"yomtov/internal/calendar"
	"yomtov/internal/config"
	apperrors "yomtov/internal/errors"
	appLog "yomtov/internal/log"
)

// TodaySource supplies the server's current calendar day.
type TodaySource interface {
	Today() string
	Date() time.Time
}

// Server provides the holiday, Shabbat and today APIs.
type Server struct {
	cfg   *config.Config
	svc   *calendar.Service
	today TodaySource
	mux   *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, svc *calendar.Service, today TodaySource) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:   cfg,
		svc:   svc,
		today: today,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routed handler wrapped in CORS and, when configured,
// HTTP Basic Auth.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return corsMiddleware(s.cfg.CORS.AllowedOrigins, h)
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/today", s.handleToday)
	s.mux.HandleFunc("GET /api/holidays", s.handleHolidaysToday)
	s.mux.HandleFunc("GET /api/holidays/{date}", s.handleHolidays)
	s.mux.HandleFunc("GET /api/holidays/{date}/ics", s.handleHolidaysICS)
	s.mux.HandleFunc("GET /api/shabbat/{date}", s.handleShabbat)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware guards the API with HTTP Basic Auth. /health stays
// open for probes. Rejections use the JSON error body of the API.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	user := sha256.Sum256([]byte(s.cfg.BasicAuth.Username))
	pass := sha256.Sum256([]byte(s.cfg.BasicAuth.Password))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !credentialsMatch(u, p, user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="yomtov", charset="UTF-8"`)
			writeJSON(w, http.StatusUnauthorized, api.Error{Error: "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// credentialsMatch compares SHA-256 digests in constant time and always
// checks both the user and the password.
func credentialsMatch(u, p string, user, pass [sha256.Size]byte) bool {
	gotUser := sha256.Sum256([]byte(u))
	gotPass := sha256.Sum256([]byte(p))
	userOK := subtle.ConstantTimeCompare(gotUser[:], user[:])
	passOK := subtle.ConstantTimeCompare(gotPass[:], pass[:])
	return userOK&passOK == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

// writeFailure maps a pipeline error to the public error contract. Invalid
// input is a 400 with the error code; anything else is logged and hidden
// behind a generic 500.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.IsInvalidInput(err) {
		writeJSON(w, http.StatusBadRequest, api.Error{
			Error:  http.StatusText(http.StatusBadRequest),
			Code:   apperrors.CodeOf(err),
			Detail: err.Error(),
		})
		return
	}
	appLog.Error("request failed", err,
		"path", r.URL.Path,
		"category", string(apperrors.CategoryOf(err)),
		"code", apperrors.CodeOf(err),
	)
	writeJSON(w, http.StatusInternalServerError, api.Error{Error: http.StatusText(http.StatusInternalServerError)})
}
