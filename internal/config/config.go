// Package config loads repowiki settings from .repowiki/config.json with
// REPOWIKI_* environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"repowiki/internal/errors"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// Dir is the per-workspace state directory.
const Dir = ".repowiki"

// Config is the complete repowiki configuration.
type Config struct {
	Version    int           `json:"version" mapstructure:"version"`
	DataFile   string        `json:"dataFile" mapstructure:"dataFile"`
	ReportFile string        `json:"reportFile" mapstructure:"reportFile"`
	DocsDir    string        `json:"docsDir" mapstructure:"docsDir"`
	RulesFile  string        `json:"rulesFile" mapstructure:"rulesFile"`
	HistoryDB  string        `json:"historyDB" mapstructure:"historyDB"`
	Backups    BackupsConfig `json:"backups" mapstructure:"backups"`
	Metrics    MetricsConfig `json:"metrics" mapstructure:"metrics"`
	Logging    LoggingConfig `json:"logging" mapstructure:"logging"`
	Watch      WatchConfig   `json:"watch" mapstructure:"watch"`
}

// BackupsConfig controls compressed copies of replaced state.
type BackupsConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	Keep    int  `json:"keep" mapstructure:"keep"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `json:"textfile" mapstructure:"textfile"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"` // "human" or "json"
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// WatchConfig contains settings for the watch command.
type WatchConfig struct {
	DebounceMs int `json:"debounceMs" mapstructure:"debounceMs"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version:    CurrentVersion,
		DataFile:   "data/repositories.json",
		ReportFile: "data/categories.json",
		DocsDir:    "docs",
		HistoryDB:  filepath.Join(Dir, "history.db"),
		Backups: BackupsConfig{
			Enabled: true,
			Keep:    5,
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("dataFile", d.DataFile)
	v.SetDefault("reportFile", d.ReportFile)
	v.SetDefault("docsDir", d.DocsDir)
	v.SetDefault("rulesFile", d.RulesFile)
	v.SetDefault("historyDB", d.HistoryDB)
	v.SetDefault("backups.enabled", d.Backups.Enabled)
	v.SetDefault("backups.keep", d.Backups.Keep)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	v.SetDefault("watch.debounceMs", d.Watch.DebounceMs)
}

// LoadConfig reads root/.repowiki/config.json. A missing file yields the
// defaults; environment variables such as REPOWIKI_DATAFILE or
// REPOWIKI_LOGGING_LEVEL override either.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, Dir))

	v.SetEnvPrefix("REPOWIKI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.New(errors.InvalidConfig, "cannot read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.InvalidConfig, "cannot decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to root/.repowiki/config.json.
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), append(data, '\n'), 0o644)
}

// Validate checks field values.
func (c *Config) Validate() error {
	invalid := func(field, msg string) error {
		return errors.New(errors.InvalidConfig, fmt.Sprintf("%s: %s", field, msg), nil).
			WithDetails(map[string]interface{}{"field": field})
	}

	if c.Version != CurrentVersion {
		return invalid("version", fmt.Sprintf("unsupported version %d", c.Version))
	}
	if c.DataFile == "" {
		return invalid("dataFile", "must not be empty")
	}
	if c.Backups.Keep < 0 {
		return invalid("backups.keep", "must not be negative")
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return invalid("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}
	if c.Logging.MaxBackups < 0 {
		return invalid("logging.maxBackups", "must not be negative")
	}
	if c.Watch.DebounceMs < 0 {
		return invalid("watch.debounceMs", "must not be negative")
	}
	return nil
}

// Resolve makes p absolute relative to root. Empty stays empty.
func Resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
