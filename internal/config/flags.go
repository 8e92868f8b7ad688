package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Flags are command-line settings that take precedence over file and env.
type Flags struct {
	fs *pflag.FlagSet

	configPath     string
	mode           string
	port           string
	zone           string
	snapshotPath   string
	reportTopN     int
	reportLookback time.Duration
}

// BindFlags registers the bank flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.configPath, "config", "c", "", "config file (default config/$ENV_NAME.yaml)")
	fs.StringVarP(&f.mode, "mode", "m", ModeConsole, "run mode: console or http")
	fs.StringVarP(&f.port, "port", "p", "8080", "HTTP listen port")
	fs.StringVar(&f.zone, "business-zone", "America/New_York", "IANA zone for business dates")
	fs.StringVar(&f.snapshotPath, "snapshot", "", "JSON snapshot restored at start and saved at exit")
	fs.IntVar(&f.reportTopN, "report-top", 5, "accounts listed in the report")
	fs.DurationVar(&f.reportLookback, "report-lookback", 30*24*time.Hour, "window for recent transactions in the report")
	return f
}

// ConfigPath returns the --config value.
func (f *Flags) ConfigPath() string {
	return f.configPath
}

// Apply overwrites cfg with every flag set on the command line and re-validates.
func (f *Flags) Apply(cfg *Config) error {
	if f.fs.Changed("mode") {
		cfg.Mode = f.mode
	}
	if f.fs.Changed("port") {
		cfg.ServerPort = f.port
	}
	if f.fs.Changed("business-zone") {
		cfg.BusinessZone = f.zone
	}
	if f.fs.Changed("snapshot") {
		cfg.SnapshotPath = f.snapshotPath
	}
	if f.fs.Changed("report-top") {
		cfg.ReportTopN = f.reportTopN
	}
	if f.fs.Changed("report-lookback") {
		cfg.ReportLookback = f.reportLookback
	}
	return validate(cfg)
}
