// Package config resolves run settings from flags, SURICATA24H_* environment
// variables, an optional YAML file and built-in defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "SURICATA24H"

// Keys shared with the command line flags.
const (
	KeyInput     = "input"
	KeyTZ        = "tz"
	KeyOutDir    = "outdir"
	KeyTopN      = "top-n"
	KeyLimit     = "limit"
	KeyBins      = "bins"
	KeyDelimiter = "delimiter"
	KeyFormat    = "format"
	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"
	KeyManifest  = "manifest"
	KeyDBDriver  = "db-driver"
	KeyDBDSN     = "db-dsn"
)

// Input formats.
const (
	FormatAuto  = "auto"
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// Config holds the settings of one report run.
type Config struct {
	Input     string `mapstructure:"input"`
	TZ        string `mapstructure:"tz"`
	OutDir    string `mapstructure:"outdir"`
	TopN      int    `mapstructure:"top-n"`
	Limit     int    `mapstructure:"limit"`
	Bins      int    `mapstructure:"bins"`
	Delimiter string `mapstructure:"delimiter"`
	Format    string `mapstructure:"format"`
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
	Manifest  bool   `mapstructure:"manifest"`
	DBDriver  string `mapstructure:"db-driver"`
	DBDSN     string `mapstructure:"db-dsn"`
}

var defaults = map[string]any{
	KeyInput:     "suricata_24h.csv",
	KeyTZ:        "America/Chicago",
	KeyOutDir:    "suricata_24h_report",
	KeyTopN:      15,
	KeyLimit:     200,
	KeyBins:      50,
	KeyDelimiter: ",",
	KeyFormat:    FormatAuto,
	KeyLogLevel:  "info",
	KeyLogFormat: "text",
	KeyManifest:  false,
	KeyDBDriver:  "",
	KeyDBDSN:     "",
}

// Default returns a Config holding the built-in defaults, overridden by any
// SURICATA24H_* environment variables.
func Default() (Config, error) {
	return Load(New(), "")
}

// New returns a viper instance with defaults registered and environment
// lookup enabled. Dashes in keys map to underscores: top-n reads
// SURICATA24H_TOP_N.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file into v and decodes the result.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.DBDriver == "sqlite" && cfg.DBDSN == "" {
		cfg.DBDSN = filepath.Join(cfg.OutDir, "flows.db")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerations and bounds.
func (c Config) Validate() error {
	var errs []error
	if c.TopN <= 0 {
		errs = append(errs, fmt.Errorf("top-n must be positive, got %d", c.TopN))
	}
	if c.Limit <= 0 {
		errs = append(errs, fmt.Errorf("limit must be positive, got %d", c.Limit))
	}
	if c.Bins <= 0 {
		errs = append(errs, fmt.Errorf("bins must be positive, got %d", c.Bins))
	}
	switch c.Format {
	case FormatAuto, FormatCSV, FormatJSONL:
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	switch c.DBDriver {
	case "", "sqlite":
	case "postgres":
		if c.DBDSN == "" {
			errs = append(errs, errors.New("db-dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.DBDriver))
	}
	if _, err := c.Comma(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Comma returns the CSV field delimiter. "\t" and "tab" select a tab.
func (c Config) Comma() (rune, error) {
	d := c.Delimiter
	if d == `\t` || strings.EqualFold(d, "tab") {
		return '\t', nil
	}
	if utf8.RuneCountInString(d) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", d)
	}
	r, _ := utf8.DecodeRuneInString(d)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", d)
	}
	return r, nil
}
