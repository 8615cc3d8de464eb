package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"yomtov/internal/calendar"
	"yomtov/internal/config"
	"yomtov/internal/details"
	"yomtov/internal/engine"
	appLog "yomtov/internal/log"
	"yomtov/internal/today"
	"yomtov/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	listen     string
	debugToday string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override the config file and environment.
	if flags.listen != "" {
		conf.Listen = flags.listen
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
	appLog.Info("yomtov starting", "version", version)

	if conf.IsProduction() && conf.DebugToday != "" {
		appLog.Warn("debug_today ignored in production", "debug_today", conf.DebugToday)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"environment", conf.Environment,
		"timezone", conf.Timezone,
		"engine_url", conf.Engine.BaseURL,
		"engine_timeout", conf.EngineTimeout().String(),
		"minor_fasts", conf.Holidays.MinorFasts,
		"rosh_chodesh", conf.Holidays.RoshChodesh,
		"modern", conf.Holidays.Modern,
		"special_shabbatot", conf.Holidays.SpecialShabbatot,
		"cors_origins", len(conf.CORS.AllowedOrigins),
		"debug_today", conf.DebugTodayOverride(),
	)

	anchor, err := today.New(today.Options{
		Location: conf.Location(),
		Override: conf.DebugTodayOverride(),
	})
	if err != nil {
		appLog.Error("failed to start today anchor", err)
		os.Exit(1)
	}
	defer anchor.Stop()
	anchor.Subscribe(func(iso string) {
		appLog.Info("calendar day rolled over", "today", iso, "timezone", conf.Timezone)
	})
	appLog.Info("today anchor ready", "today", anchor.Today(), "state", anchor.State().String())

	catalog, err := details.Builtin()
	if err != nil {
		appLog.Error("failed to load bundled details", err)
		os.Exit(1)
	}
	svc := calendar.NewService(engine.NewHebcal(conf.Engine.BaseURL, conf.EngineTimeout()), catalog)
	srv := web.NewServer(conf, svc, anchor)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		anchor.Stop()
		os.Exit(1)
	}
	appLog.Info("yomtov exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/yomtov/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.debugToday, "debug-today", "", "Pin today to YYYY-MM-DD (ignored in production)")

	flag.Parse()

	return cfg
}
