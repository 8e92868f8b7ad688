package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Run modes.
const (
	ModeConsole = "console"
	ModeHTTP    = "http"
)

// Config holds service configuration loaded from YAML, env and flags.
type Config struct {
	Mode string

	ServerPort string

	// BusinessZone names the IANA zone that assigns business dates; Location is
	// the loaded zone.
	BusinessZone string
	Location     *time.Location

	// SnapshotPath, when set, is restored at start and written at shutdown.
	SnapshotPath string

	ReportTopN     int
	ReportLookback time.Duration
	ReportTimeout  time.Duration

	RequestTimeout time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	DegradedWindow   time.Duration
	DegradedErrorPct int

	// Health reports overloaded when rate-limit denials within OverloadWindow
	// exceed RateLimitRPS*OverloadWindow*OverloadThresholdPct/100.
	OverloadWindow       time.Duration
	OverloadThresholdPct int
}

type fileConfig struct {
	Mode string `yaml:"mode"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Bank struct {
		BusinessZone string `yaml:"business_zone"`
		SnapshotPath string `yaml:"snapshot_path"`
	} `yaml:"bank"`

	Report struct {
		TopN     int    `yaml:"top_n"`
		Lookback string `yaml:"lookback"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"report"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Reliability struct {
		RateLimitRPS         *int   `yaml:"rate_limit_rps"`
		RateLimitBurst       int    `yaml:"rate_limit_burst"`
		OverloadWindow       string `yaml:"overload_window"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"lifecycle"`
}

// Load reads configuration from path, or from config/{ENV_NAME}.yaml when
// path is empty. A missing default file (ENV_NAME unset) yields built-in
// defaults; a missing explicit file is an error. BANK_MODE, SERVER_PORT,
// BANK_BUSINESS_ZONE and BANK_SNAPSHOT_PATH override the file.
func Load(path string) (*Config, error) {
	env := os.Getenv("ENV_NAME")
	optional := path == "" && env == ""
	if path == "" {
		if env == "" {
			env = "dev"
		}
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: get working directory: %w", err)
		}
		path = filepath.Join(cwd, "config", env+".yaml")
	}

	var fc fileConfig
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && optional:
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config file not found: %s", path)
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := fromFile(fc)
	applyEnv(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromFile(fc fileConfig) *Config {
	cfg := &Config{
		Mode:         strings.ToLower(strings.TrimSpace(fc.Mode)),
		ServerPort:   strings.TrimSpace(fc.Server.Port),
		BusinessZone: strings.TrimSpace(fc.Bank.BusinessZone),
		SnapshotPath: strings.TrimSpace(fc.Bank.SnapshotPath),
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeConsole
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.BusinessZone == "" {
		cfg.BusinessZone = "America/New_York"
	}

	cfg.ReportTopN = fc.Report.TopN
	if cfg.ReportTopN <= 0 {
		cfg.ReportTopN = 5
	}
	cfg.ReportLookback = parseDuration(fc.Report.Lookback, 30*24*time.Hour)
	cfg.ReportTimeout = parseDuration(fc.Report.Timeout, 10*time.Second)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)
	cfg.RateLimitRPS = 100
	if fc.Reliability.RateLimitRPS != nil {
		cfg.RateLimitRPS = *fc.Reliability.RateLimitRPS
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}
	cfg.OverloadWindow = parseDuration(fc.Reliability.OverloadWindow, 60*time.Second)
	cfg.OverloadThresholdPct = fc.Reliability.OverloadThresholdPct
	if cfg.OverloadThresholdPct <= 0 {
		cfg.OverloadThresholdPct = 80
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Lifecycle.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 5
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("BANK_MODE")); v != "" {
		cfg.Mode = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("SERVER_PORT")); v != "" {
		cfg.ServerPort = v
	}
	if v := strings.TrimSpace(os.Getenv("BANK_BUSINESS_ZONE")); v != "" {
		cfg.BusinessZone = v
	}
	if v := strings.TrimSpace(os.Getenv("BANK_SNAPSHOT_PATH")); v != "" {
		cfg.SnapshotPath = v
	}
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate checks the merged configuration and resolves Location.
func validate(cfg *Config) error {
	switch cfg.Mode {
	case ModeConsole, ModeHTTP:
	default:
		return fmt.Errorf("mode must be %s or %s, got %q", ModeConsole, ModeHTTP, cfg.Mode)
	}
	port, err := strconv.Atoi(cfg.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %q", cfg.ServerPort)
	}
	loc, err := time.LoadLocation(cfg.BusinessZone)
	if err != nil {
		return fmt.Errorf("business zone %q: %w", cfg.BusinessZone, err)
	}
	cfg.Location = loc
	if cfg.ReportTopN <= 0 {
		return fmt.Errorf("report top_n must be positive, got %d", cfg.ReportTopN)
	}
	if cfg.ReportLookback <= 0 {
		return fmt.Errorf("report lookback must be positive, got %s", cfg.ReportLookback)
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("rate_limit_rps must not be negative, got %d", cfg.RateLimitRPS)
	}
	if cfg.DegradedErrorPct > 100 {
		return fmt.Errorf("degraded_error_pct must be at most 100, got %d", cfg.DegradedErrorPct)
	}
	if cfg.OverloadThresholdPct > 200 {
		return fmt.Errorf("overload_threshold_pct must be at most 200, got %d", cfg.OverloadThresholdPct)
	}
	return nil
}
