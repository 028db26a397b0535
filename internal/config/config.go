package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the data directory.
const FileName = "pocket.yaml"

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config represents the top-level pocket.yaml configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Timezone  string          `yaml:"timezone"`
	Log       LogConfig       `yaml:"log"`
	Budget    BudgetConfig    `yaml:"budget"`
	Recurring RecurringConfig `yaml:"recurring"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Git       GitConfig       `yaml:"git"`
	Watch     WatchConfig     `yaml:"watch"`
}

// StorageConfig selects where records live. A relative path is resolved
// against the data directory.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BudgetConfig holds the alert threshold used when the stored budget has none.
type BudgetConfig struct {
	AlertThreshold float64 `yaml:"alert_threshold"`
}

type RecurringConfig struct {
	MaxCatchUp int `yaml:"max_catch_up"`
}

// DefaultsConfig fills in fields the user leaves blank.
type DefaultsConfig struct {
	Account          string `yaml:"account"`
	FallbackCategory string `yaml:"fallback_category"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// WatchConfig is the cron schedule for `pocket watch`.
type WatchConfig struct {
	Schedule string `yaml:"schedule"`
}

// Default returns a Config with sensible defaults for a new data directory.
func Default() *Config {
	return &Config{
		Storage:   StorageConfig{Backend: BackendFile},
		Timezone:  "Local",
		Log:       LogConfig{Level: "warn", Format: "console"},
		Budget:    BudgetConfig{AlertThreshold: 0.8},
		Recurring: RecurringConfig{MaxCatchUp: 1000},
		Defaults:  DefaultsConfig{Account: "cash", FallbackCategory: "Others"},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Pocket",
			AuthorEmail: "pocket@localhost",
		},
		Watch: WatchConfig{Schedule: "@every 1h"},
	}
}

// Load reads a pocket.yaml file from disk. Fields the file omits keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadDir loads <dir>/pocket.yaml, falling back to defaults when the file
// does not exist, then applies the environment. A .env file in dir is read
// first when present.
func LoadDir(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from POCKET_* variables. Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	overrides := []struct {
		name string
		dst  *string
	}{
		{"POCKET_STORAGE_BACKEND", &c.Storage.Backend},
		{"POCKET_STORAGE_PATH", &c.Storage.Path},
		{"POCKET_LOG_LEVEL", &c.Log.Level},
		{"POCKET_LOG_FORMAT", &c.Log.Format},
		{"POCKET_TIMEZONE", &c.Timezone},
	}
	for _, o := range overrides {
		if v := getenv(o.name); v != "" {
			*o.dst = v
		}
	}
}

// Validate checks every field a service depends on.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Budget.AlertThreshold <= 0 || c.Budget.AlertThreshold > 1 {
		errs = append(errs, fmt.Errorf("budget.alert_threshold: must be in (0, 1], got %v", c.Budget.AlertThreshold))
	}
	if c.Recurring.MaxCatchUp <= 0 {
		errs = append(errs, fmt.Errorf("recurring.max_catch_up: must be positive, got %d", c.Recurring.MaxCatchUp))
	}
	if c.Defaults.Account == "" {
		errs = append(errs, errors.New("defaults.account: required"))
	}
	if c.Defaults.FallbackCategory == "" {
		errs = append(errs, errors.New("defaults.fallback_category: required"))
	}
	if _, err := cron.ParseStandard(c.Watch.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("watch.schedule: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// StoragePath returns the backend location under dataDir.
func (c *Config) StoragePath(dataDir string) string {
	p := c.Storage.Path
	if p == "" {
		if c.Storage.Backend == BackendSQLite {
			p = "pocket.db"
		} else {
			p = "data"
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dataDir, p)
}
