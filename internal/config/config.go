package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"yomtov/internal/model"
)

// Environment variables applied on top of the YAML file.
const (
	EnvListen      = "YOMTOV_LISTEN"
	EnvEnvironment = "YOMTOV_ENVIRONMENT"
	EnvLogLevel    = "YOMTOV_LOG_LEVEL"
	EnvTimezone    = "YOMTOV_TIMEZONE"
	EnvEngineURL   = "YOMTOV_ENGINE_URL"
	EnvDebugToday  = "YOMTOV_DEBUG_TODAY"

	EnvEngineTimeout = "YOMTOV_ENGINE_TIMEOUT_SECONDS"
)

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
)

// EngineConfig points at the calendar engine.
type EngineConfig struct {
	// BaseURL is the Hebcal-compatible REST endpoint root.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// TimeoutSeconds bounds a single engine request.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// CandleMinutes is minutes before sundown for candle lighting.
	CandleMinutes int `yaml:"candle_minutes" json:"candle_minutes"`
	// HavdalahMinutes is minutes after sundown; 0 means nightfall.
	HavdalahMinutes int `yaml:"havdalah_minutes" json:"havdalah_minutes"`
}

// HolidaysConfig holds the default holiday families. Each can be
// overridden per request.
type HolidaysConfig struct {
	MinorFasts       bool `yaml:"minor_fasts" json:"minor_fasts"`
	RoshChodesh      bool `yaml:"rosh_chodesh" json:"rosh_chodesh"`
	Modern           bool `yaml:"modern" json:"modern"`
	SpecialShabbatot bool `yaml:"special_shabbatot" json:"special_shabbatot"`
}

// CORSConfig lists origins allowed to read the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Environment is "production" or anything else. Debug-only features
	// are refused in production.
	Environment string `yaml:"environment" json:"environment"`

	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Timezone is the IANA zone whose calendar day the server treats as today.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DebugToday pins today (YYYY-MM-DD) outside production.
	DebugToday string `yaml:"debug_today,omitempty" json:"debug_today,omitempty"`

	Engine   EngineConfig   `yaml:"engine" json:"engine"`
	Holidays HolidaysConfig `yaml:"holidays" json:"holidays"`
	CORS     CORSConfig     `yaml:"cors" json:"cors"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Environment: EnvironmentDevelopment,
		LogLevel:    "info",
		Timezone:    "UTC",
		Engine: EngineConfig{
			BaseURL:         "https://www.hebcal.com",
			TimeoutSeconds:  15,
			CandleMinutes:   18,
			HavdalahMinutes: 42,
		},
		Holidays: HolidaysConfig{
			MinorFasts:  true,
			RoshChodesh: true,
			Modern:      true,
		},
		CORS:      CORSConfig{AllowedOrigins: []string{}},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	c.Listen = strings.TrimSpace(c.Listen)
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	if c.Environment == "" {
		c.Environment = def.Environment
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = def.Timezone
	}
	c.DebugToday = strings.TrimSpace(c.DebugToday)

	c.Engine.BaseURL = strings.TrimRight(strings.TrimSpace(c.Engine.BaseURL), "/")
	if c.Engine.BaseURL == "" {
		c.Engine.BaseURL = def.Engine.BaseURL
	}
	if c.Engine.TimeoutSeconds <= 0 {
		c.Engine.TimeoutSeconds = def.Engine.TimeoutSeconds
	}
	if c.Engine.CandleMinutes < 0 {
		c.Engine.CandleMinutes = def.Engine.CandleMinutes
	}
	if c.Engine.HavdalahMinutes < 0 {
		c.Engine.HavdalahMinutes = 0
	}
	if c.CORS.AllowedOrigins == nil {
		c.CORS.AllowedOrigins = []string{}
	}
}

// Validate reports values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	if c.DebugToday != "" {
		if _, err := model.ParseDate(c.DebugToday); err != nil {
			return fmt.Errorf("config: debug_today: %w", err)
		}
	}
	if !strings.HasPrefix(c.Engine.BaseURL, "http://") && !strings.HasPrefix(c.Engine.BaseURL, "https://") {
		return fmt.Errorf("config: engine base_url %q must be http(s)", c.Engine.BaseURL)
	}
	return nil
}

// IsProduction reports whether the environment is "production".
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// DebugTodayOverride returns the pinned day, or "" in production.
func (c *Config) DebugTodayOverride() string {
	if c.IsProduction() {
		return ""
	}
	return c.DebugToday
}

// Location resolves Timezone. Validate has already rejected unknown zones.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EngineTimeout is Engine.TimeoutSeconds as a duration.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSeconds) * time.Second
}

// HolidayFlags returns the configured holiday families as engine flags.
func (c *Config) HolidayFlags() model.Flags {
	return model.Flags{
		MinorFasts:       c.Holidays.MinorFasts,
		RoshChodesh:      c.Holidays.RoshChodesh,
		Modern:           c.Holidays.Modern,
		SpecialShabbatot: c.Holidays.SpecialShabbatot,
	}
}

// ShabbatFlags returns the configured candle-lighting and Havdalah offsets.
func (c *Config) ShabbatFlags() model.Flags {
	return model.Flags{
		CandleLightingMins: c.Engine.CandleMinutes,
		HavdalahMins:       c.Engine.HavdalahMinutes,
	}
}

// ApplyEnv overlays environment variables, after loading a .env file from
// the working directory when one exists. Existing variables win over .env.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if v, ok := lookup(EnvListen); ok {
		c.Listen = v
	}
	if v, ok := lookup(EnvEnvironment); ok {
		c.Environment = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvTimezone); ok {
		c.Timezone = v
	}
	if v, ok := lookup(EnvEngineURL); ok {
		c.Engine.BaseURL = v
	}
	if v, ok := lookup(EnvDebugToday); ok {
		c.DebugToday = v
	}
	if v, ok := lookup(EnvEngineTimeout); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvEngineTimeout, err)
		}
		c.Engine.TimeoutSeconds = n
	}
	c.Normalize()
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Load loads configuration from the given YAML path, then applies the
// environment and validates the result.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - continue with the defaults
//   - If the file exists:
//   - read YAML over the defaults, so omitted keys keep their default
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.Normalize()

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileHeader opens every config file written by Save.
const fileHeader = "# yomtov server configuration.\n# YOMTOV_* environment variables override the values below.\n\n"

// Save validates cfg and writes it to path as YAML, replacing any previous
// file atomically. An invalid configuration is never written.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: refusing to save: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return writeFileAtomic(path, append([]byte(fileHeader), data...))
}

// writeFileAtomic replaces path with data through a 0600 temp file in the
// same directory, creating the directory (0700) when missing.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".yomtov-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0o600)
	}
	if err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is the method form of the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
