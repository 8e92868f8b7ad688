package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/spf13/pflag"
)

const minimalEnvYAML = `
mode: http
server:
  port: "9090"
bank:
  business_zone: "UTC"
  snapshot_path: "data/bank.json"
report:
  top_n: 3
  lookback: "24h"
request:
  timeout: "2s"
reliability:
  rate_limit_rps: 5
  rate_limit_burst: 10
shutdown:
  timeout: "10s"
lifecycle:
  degraded_window: "30s"
  degraded_error_pct: 20
`

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ENV_NAME", "BANK_MODE", "SERVER_PORT", "BANK_BUSINESS_ZONE", "BANK_SNAPSHOT_PATH"} {
		t.Setenv(k, "")
	}
}

// inTempDir changes into a fresh directory for the duration of the test.
func inTempDir(t *testing.T) string {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	return dir
}

func writeEnvFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	path := filepath.Join(configDir, name+".yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	inTempDir(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != ModeConsole || cfg.ServerPort != "8080" || cfg.BusinessZone != "America/New_York" {
		t.Errorf("defaults = mode %q port %q zone %q", cfg.Mode, cfg.ServerPort, cfg.BusinessZone)
	}
	if cfg.ReportTopN != 5 || cfg.ReportLookback != 30*24*time.Hour {
		t.Errorf("report defaults = %d %s", cfg.ReportTopN, cfg.ReportLookback)
	}
	if cfg.Location == nil {
		t.Error("Location not resolved")
	}
	if cfg.RateLimitRPS != 100 || cfg.RateLimitBurst != 250 {
		t.Errorf("rate limit defaults = %d/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.OverloadWindow != 60*time.Second || cfg.OverloadThresholdPct != 80 {
		t.Errorf("overload defaults = %s %d", cfg.OverloadWindow, cfg.OverloadThresholdPct)
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	clearEnv(t)
	dir := inTempDir(t)
	writeEnvFile(t, dir, "dev", minimalEnvYAML)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != ModeHTTP || cfg.ServerPort != "9090" || cfg.BusinessZone != "UTC" || cfg.SnapshotPath != "data/bank.json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ReportTopN != 3 || cfg.ReportLookback != 24*time.Hour || cfg.RequestTimeout != 2*time.Second {
		t.Errorf("report/request = %d %s %s", cfg.ReportTopN, cfg.ReportLookback, cfg.RequestTimeout)
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
		t.Errorf("rate limit = %d/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.DegradedWindow != 30*time.Second || cfg.DegradedErrorPct != 20 {
		t.Errorf("degraded = %s %d", cfg.DegradedWindow, cfg.DegradedErrorPct)
	}
}

func TestLoad_RateLimitZeroDisables(t *testing.T) {
	clearEnv(t)
	dir := inTempDir(t)
	writeEnvFile(t, dir, "dev", "reliability:\n  rate_limit_rps: 0\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RateLimitRPS != 0 {
		t.Errorf("RateLimitRPS = %d, want 0", cfg.RateLimitRPS)
	}
}

func TestLoad_EnvNameSelectsFileAndMustExist(t *testing.T) {
	clearEnv(t)
	dir := inTempDir(t)
	t.Setenv("ENV_NAME", "prod")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("Load() error = %v, want config file not found", err)
	}

	writeEnvFile(t, dir, "prod", "server:\n  port: \"7070\"\n")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "7070" {
		t.Errorf("ServerPort = %q, want 7070", cfg.ServerPort)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := inTempDir(t)
	writeEnvFile(t, dir, "dev", minimalEnvYAML)
	t.Setenv("BANK_MODE", "CONSOLE")
	t.Setenv("SERVER_PORT", "8181")
	t.Setenv("BANK_BUSINESS_ZONE", "Europe/London")
	t.Setenv("BANK_SNAPSHOT_PATH", "/tmp/other.json")

	cfg, err := Load("")
	if err != nil {
		if strings.Contains(err.Error(), "business zone") {
			t.Skipf("time zone data unavailable: %v", err)
		}
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != ModeConsole || cfg.ServerPort != "8181" || cfg.BusinessZone != "Europe/London" || cfg.SnapshotPath != "/tmp/other.json" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeEnvFile(t, dir, "custom", "mode: http\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != ModeHTTP {
		t.Errorf("Mode = %q, want http", cfg.Mode)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load() of missing explicit file succeeded")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad mode", "mode: batch\n", "mode must be"},
		{"bad port", "server:\n  port: \"http\"\n", "server port"},
		{"bad zone", "bank:\n  business_zone: \"Mars/Olympus\"\n", "business zone"},
		{"negative rps", "reliability:\n  rate_limit_rps: -1\n", "rate_limit_rps"},
		{"pct over 100", "lifecycle:\n  degraded_error_pct: 101\n", "degraded_error_pct"},
		{"malformed yaml", "server: [\n", "parse config file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			dir := inTempDir(t)
			writeEnvFile(t, dir, "dev", tc.yaml)
			cfg, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Load() error = %v, want containing %q", err, tc.wantErr)
			}
			if cfg != nil {
				t.Errorf("Load() config = %+v, want nil on error", cfg)
			}
		})
	}
}

func TestFlags_OverrideOnlyWhenSet(t *testing.T) {
	clearEnv(t)
	dir := inTempDir(t)
	writeEnvFile(t, dir, "dev", minimalEnvYAML)

	fs := pflag.NewFlagSet("bank", pflag.ContinueOnError)
	flags := BindFlags(fs)
	if err := fs.Parse([]string{"--port", "6060", "--report-top=7", "--report-lookback", "2h", "-c", "ignored.yaml"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if flags.ConfigPath() != "ignored.yaml" {
		t.Errorf("ConfigPath() = %q", flags.ConfigPath())
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := flags.Apply(cfg); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if cfg.ServerPort != "6060" || cfg.ReportTopN != 7 || cfg.ReportLookback != 2*time.Hour {
		t.Errorf("flag overrides = %q %d %s", cfg.ServerPort, cfg.ReportTopN, cfg.ReportLookback)
	}
	if cfg.Mode != ModeHTTP {
		t.Errorf("unset --mode changed Mode to %q", cfg.Mode)
	}
}

func TestFlags_ApplyValidates(t *testing.T) {
	clearEnv(t)
	inTempDir(t)
	fs := pflag.NewFlagSet("bank", pflag.ContinueOnError)
	flags := BindFlags(fs)
	if err := fs.Parse([]string{"--mode", "daemon"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := flags.Apply(cfg); err == nil {
		t.Error("Apply() accepted an invalid mode")
	}
}

// TestLoad_ProjectDevConfig checks that the committed config/dev.yaml is valid.
func TestLoad_ProjectDevConfig(t *testing.T) {
	clearEnv(t)
	root := findProjectRoot(t)
	cfg, err := Load(filepath.Join(root, "config", "dev.yaml"))
	if err != nil {
		if strings.Contains(err.Error(), "business zone") {
			t.Skipf("time zone data unavailable: %v", err)
		}
		t.Fatalf("Load(dev.yaml) error = %v", err)
	}
	if cfg.Mode != ModeConsole {
		t.Errorf("dev Mode = %q, want console", cfg.Mode)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "config", "dev.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Skip("config/dev.yaml not found above the package directory")
		}
		dir = parent
	}
}
