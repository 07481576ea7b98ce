package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_path: /data/stands.db
format: text
profile_step_m: 0.5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/stands.db", cfg.DatabasePath)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 0.5, cfg.ProfileStepM)
	assert.Equal(t, "warn", cfg.LogLevel, "unset fields keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: text\n"), 0o644))

	t.Setenv("TAPER_FORMAT", "json")
	t.Setenv("TAPER_DB", "/tmp/env.db")
	t.Setenv("TAPER_LOG_LEVEL", "debug")
	t.Setenv("TAPER_SCRIPTS_DIR", "/scripts")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "/tmp/env.db", cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/scripts", cfg.ScriptsDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: [unterminated\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: xml\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Format = "text"
	cfg.ProfileStepM = 2
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad format", func(c *Config) { c.Format = "yaml" }, "invalid format"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "invalid log_level"},
		{"zero step", func(c *Config) { c.ProfileStepM = 0 }, "invalid profile_step_m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// clearEnv blanks the TAPER_* overrides for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TAPER_DB", "TAPER_FORMAT", "TAPER_LOG_LEVEL", "TAPER_SCRIPTS_DIR"} {
		t.Setenv(k, "")
	}
}
