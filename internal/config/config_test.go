package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = BackendSQLite
	cfg.Timezone = "Europe/Rome"
	cfg.Git.AutoCommit = true

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "Local", cfg.Timezone)
	assert.InDelta(t, 0.8, cfg.Budget.AlertThreshold, 0.001)
	assert.Equal(t, 1000, cfg.Recurring.MaxCatchUp)
	assert.Equal(t, "cash", cfg.Defaults.Account)
	assert.Equal(t, "Others", cfg.Defaults.FallbackCategory)
	assert.Equal(t, "@every 1h", cfg.Watch.Schedule)
	assert.False(t, cfg.Git.AutoCommit)
	require.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: sqlite\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "cash", cfg.Defaults.Account)
	assert.Equal(t, 1000, cfg.Recurring.MaxCatchUp)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "backend: file")
	assert.Contains(t, contents, "alert_threshold: 0.8")
	assert.Contains(t, contents, "max_catch_up: 1000")
	assert.Contains(t, contents, "fallback_category: Others")
	assert.Contains(t, contents, "auto_commit: false")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"POCKET_STORAGE_BACKEND": "sqlite",
		"POCKET_LOG_LEVEL":       "debug",
		"POCKET_TIMEZONE":        "UTC",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Defaults.Account = "bank"
	require.NoError(t, Save(filepath.Join(dir, FileName), cfg))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("POCKET_LOG_FORMAT=json\n"), 0o644))
	t.Setenv("POCKET_LOG_FORMAT", "")
	os.Unsetenv("POCKET_LOG_FORMAT")

	got, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "bank", got.Defaults.Account)
	assert.Equal(t, "json", got.Log.Format)
}

func TestLoadDirMissingFile(t *testing.T) {
	got, err := LoadDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, BackendFile, got.Storage.Backend)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"backend", func(c *Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"threshold zero", func(c *Config) { c.Budget.AlertThreshold = 0 }, "budget.alert_threshold"},
		{"threshold above one", func(c *Config) { c.Budget.AlertThreshold = 1.5 }, "budget.alert_threshold"},
		{"catch up", func(c *Config) { c.Recurring.MaxCatchUp = 0 }, "recurring.max_catch_up"},
		{"account", func(c *Config) { c.Defaults.Account = "" }, "defaults.account"},
		{"fallback", func(c *Config) { c.Defaults.FallbackCategory = "" }, "defaults.fallback_category"},
		{"schedule", func(c *Config) { c.Watch.Schedule = "every so often" }, "watch.schedule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestStoragePath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("/d", "data"), cfg.StoragePath("/d"))

	cfg.Storage.Backend = BackendSQLite
	assert.Equal(t, filepath.Join("/d", "pocket.db"), cfg.StoragePath("/d"))

	cfg.Storage.Path = "/var/lib/pocket.db"
	assert.Equal(t, "/var/lib/pocket.db", cfg.StoragePath("/d"))
}
