package config

import (
	"os"
	"path/filepath"
	"testing"

	"repowiki/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.DataFile != "data/repositories.json" {
		t.Errorf("DataFile = %q", cfg.DataFile)
	}
	if !cfg.Backups.Enabled || cfg.Backups.Keep != 5 {
		t.Errorf("Backups = %+v", cfg.Backups)
	}
	if cfg.Logging.Format != "human" || cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Watch.DebounceMs != 500 {
		t.Errorf("DebounceMs = %d", cfg.Watch.DebounceMs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad version", func(c *Config) { c.Version = 9 }, "version"},
		{"empty data file", func(c *Config) { c.DataFile = "" }, "dataFile"},
		{"negative keep", func(c *Config) { c.Backups.Keep = -1 }, "backups.keep"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative log backups", func(c *Config) { c.Logging.MaxBackups = -2 }, "logging.maxBackups"},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMs = -1 }, "watch.debounceMs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if errors.CodeOf(err) != errors.InvalidConfig {
				t.Errorf("code = %s, want %s", errors.CodeOf(err), errors.InvalidConfig)
			}
			we := err.(*errors.WikiError)
			if d, _ := we.Details.(map[string]interface{}); d["field"] != tt.field {
				t.Errorf("field = %v, want %s", d["field"], tt.field)
			}
		})
	}
}

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DocsDir != "docs" {
		t.Errorf("DocsDir = %q, want docs", cfg.DocsDir)
	}
	if cfg.HistoryDB != filepath.Join(Dir, "history.db") {
		t.Errorf("HistoryDB = %q", cfg.HistoryDB)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, Dir), 0o755); err != nil {
		t.Fatal(err)
	}
	content := `{
  "version": 1,
  "dataFile": "state/repos.json",
  "backups": {"keep": 2},
  "logging": {"level": "debug"}
}`
	if err := os.WriteFile(filepath.Join(root, Dir, "config.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DataFile != "state/repos.json" {
		t.Errorf("DataFile = %q", cfg.DataFile)
	}
	if cfg.Backups.Keep != 2 {
		t.Errorf("Backups.Keep = %d, want 2", cfg.Backups.Keep)
	}
	if !cfg.Backups.Enabled {
		t.Error("unset backups.enabled should keep its default")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "human" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("REPOWIKI_DATAFILE", "env/repos.json")
	t.Setenv("REPOWIKI_LOGGING_FORMAT", "json")
	t.Setenv("REPOWIKI_WATCH_DEBOUNCEMS", "50")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DataFile != "env/repos.json" {
		t.Errorf("DataFile = %q", cfg.DataFile)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q", cfg.Logging.Format)
	}
	if cfg.Watch.DebounceMs != 50 {
		t.Errorf("DebounceMs = %d", cfg.Watch.DebounceMs)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	root := t.TempDir()
	_ = os.MkdirAll(filepath.Join(root, Dir), 0o755)
	_ = os.WriteFile(filepath.Join(root, Dir, "config.json"), []byte("{not json"), 0o644)

	_, err := LoadConfig(root)
	if errors.CodeOf(err) != errors.InvalidConfig {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	root := t.TempDir()
	_ = os.MkdirAll(filepath.Join(root, Dir), 0o755)
	_ = os.WriteFile(filepath.Join(root, Dir, "config.json"), []byte(`{"version": 1, "logging": {"format": "xml"}}`), 0o644)

	if _, err := LoadConfig(root); err == nil {
		t.Error("expected validation error")
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.DocsDir = "site"
	cfg.Metrics.Textfile = "metrics/repowiki.prom"

	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.DocsDir != "site" || loaded.Metrics.Textfile != "metrics/repowiki.prom" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		root, p, want string
	}{
		{"/w", "", ""},
		{"/w", "data/x.json", "/w/data/x.json"},
		{"/w", "/abs/x.json", "/abs/x.json"},
	}
	for _, tt := range tests {
		if got := Resolve(tt.root, tt.p); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.root, tt.p, got, tt.want)
		}
	}
}
