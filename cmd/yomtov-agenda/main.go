package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"yomtov/internal/api"
	"yomtov/internal/client"
	"yomtov/internal/config"
	appLog "yomtov/internal/log"
	"yomtov/internal/model"
	"yomtov/internal/rangepolicy"
	"yomtov/internal/today"
)

type flagConfig struct {
	configPath string
	server     string
	weeks      int
	limit      int
	watch      bool
	debugToday string

	latitude  float64
	longitude float64
	altitude  float64
	timezone  string
}

func main() {
	flags := parseFlags()

	conf, err := loadConfig(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.debugToday != "" {
		conf.DebugToday = flags.debugToday
		if err := conf.Validate(); err != nil {
			appLog.Error("invalid -debug-today", err)
			os.Exit(1)
		}
	}
	if err := appLog.Configure(conf.LogLevel, conf.Environment); err != nil {
		appLog.Warn("invalid log level; using info", "log_level", conf.LogLevel)
	}

	server := flags.server
	if server == "" {
		server = "http://" + conf.Listen
	}
	opts := []client.Option{client.WithTimeout(conf.EngineTimeout() + 5*time.Second)}
	if ba := conf.BasicAuth; ba != nil {
		opts = append(opts, client.WithBasicAuth(ba.Username, ba.Password))
	}
	a := &agenda{
		out:    os.Stdout,
		api:    client.New(server, opts...),
		flags:  conf.HolidayFlags(),
		weeks:  flags.weeks,
		limit:  flags.limit,
		coords: flags.location(),
	}

	anchor, err := today.New(today.Options{
		Location: conf.Location(),
		Override: conf.DebugTodayOverride(),
	})
	if err != nil {
		appLog.Error("failed to start today anchor", err)
		os.Exit(1)
	}
	defer anchor.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := a.print(ctx, anchor.Date()); err != nil {
		appLog.Error("agenda failed", err, "server", server)
		if !flags.watch {
			os.Exit(1)
		}
	}
	if !flags.watch {
		return
	}

	rollover := make(chan string, 1)
	unsubscribe := anchor.Subscribe(func(iso string) {
		select {
		case rollover <- iso:
		default:
		}
	})
	defer unsubscribe()
	appLog.Info("watching for day rollover", "today", anchor.Today(), "state", anchor.State().String())

	for {
		select {
		case <-ctx.Done():
			return
		case iso := <-rollover:
			appLog.Info("calendar day rolled over", "today", iso)
			if err := a.print(ctx, anchor.Date()); err != nil {
				appLog.Error("agenda refresh failed", err, "today", iso)
			}
		}
	}
}

// loadConfig reads the YAML file when a path is given; otherwise it uses
// defaults plus the environment.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type agenda struct {
	out    io.Writer
	api    *client.Client
	flags  model.Flags
	weeks  int
	limit  int
	coords *model.Location
}

// print writes today's holidays, the upcoming ones and the next Shabbat
// weeks for the given day.
//
// Holidays are requested from the day before, so the first entries dated
// on day itself are today's.
func (a *agenda) print(ctx context.Context, day time.Time) error {
	holidays, err := a.api.Holidays(ctx, day.AddDate(0, 0, -1), a.flags)
	if err != nil {
		return fmt.Errorf("holidays: %w", err)
	}

	iso := model.FormatDate(day)
	var current, upcoming []api.Holiday
	for _, h := range holidays {
		switch {
		case h.Date == iso:
			current = append(current, h)
		case h.Date > iso:
			upcoming = append(upcoming, h)
		}
	}
	if a.limit > 0 && len(upcoming) > a.limit {
		upcoming = upcoming[:a.limit]
	}

	fmt.Fprintf(a.out, "Today %s\n", iso)
	for _, h := range current {
		fmt.Fprintf(a.out, "  * %s%s\n", h.Title, hebrewSuffix(h.HebrewTitle))
	}
	fmt.Fprintln(a.out, "\nUpcoming holidays")
	for _, h := range upcoming {
		fmt.Fprintf(a.out, "  %s  %-28s %s\n", h.Date, h.Title, strings.Join(h.Categories, ","))
	}

	if a.weeks <= 0 {
		return nil
	}
	anchors, err := rangepolicy.WeeklyAnchors(day, a.weeks)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "\nShabbat")
	for _, start := range anchors {
		week, err := a.api.Shabbat(ctx, start, a.coords)
		if err != nil {
			return fmt.Errorf("shabbat %s: %w", model.FormatDate(start), err)
		}
		fmt.Fprintf(a.out, "  %s\n", shabbatLine(week))
	}
	return nil
}

func shabbatLine(s api.Shabbat) string {
	parts := []string{s.RangeStart}
	if v := api.Value(s.ParashaTitle); v != "" {
		if r := api.Value(s.ParashaRange); r != "" {
			v += " (" + r + ")"
		}
		parts = append(parts, v)
	} else if s.ParashaReplacedByHoliday {
		parts = append(parts, "festival reading")
	}
	if v := api.Value(s.CandleTime); v != "" {
		parts = append(parts, "candles "+api.Value(s.CandleDate)+" "+v)
	}
	if v := api.Value(s.HavdalahTime); v != "" {
		parts = append(parts, "havdalah "+api.Value(s.HavdalahDate)+" "+v)
	} else if s.EndsIntoYomTov {
		parts = append(parts, "continues into Yom Tov")
	}
	return strings.Join(parts, "  ")
}

func hebrewSuffix(s string) string {
	if s == "" {
		return ""
	}
	return " (" + s + ")"
}

func (f flagConfig) location() *model.Location {
	if f.timezone == "" {
		return nil
	}
	return &model.Location{
		Latitude:   f.latitude,
		Longitude:  f.longitude,
		Elevation:  f.altitude,
		TimezoneID: f.timezone,
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to config file (optional)")
	flag.StringVar(&cfg.server, "server", "", "yomtov API base URL (default http://<listen>)")
	flag.IntVar(&cfg.weeks, "weeks", 1, "Number of Shabbat weeks to show")
	flag.IntVar(&cfg.limit, "limit", 10, "Maximum upcoming holidays to show (0 for all)")
	flag.BoolVar(&cfg.watch, "watch", false, "Keep running and reprint at every local midnight")
	flag.StringVar(&cfg.debugToday, "debug-today", "", "Pin today to YYYY-MM-DD (ignored in production)")
	flag.Float64Var(&cfg.latitude, "lat", 0, "Latitude for candle lighting and Havdalah")
	flag.Float64Var(&cfg.longitude, "lon", 0, "Longitude for candle lighting and Havdalah")
	flag.Float64Var(&cfg.altitude, "alt", 0, "Altitude in meters")
	flag.StringVar(&cfg.timezone, "tz", "", "IANA timezone of the location; enables timed Shabbat fields")

	flag.Parse()

	return cfg
}
