package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/geotask/internal/model"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	d := model.DefaultConfig()
	assert.Equal(t, d.Backend.Mode, cfg.Backend.Mode)
	assert.Equal(t, 200.0, cfg.Geofence.RadiusMeters)
	assert.Equal(t, "full", cfg.Geofence.Strategy)
	assert.Equal(t, "name", cfg.Geofence.Identifier)
	assert.Zero(t, cfg.Sync.OperationTimeout())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  mode: remote
  server_url: https://tasks.example.com
sync:
  operation_timeout_sec: 15
geofence:
  strategy: diff
`), 0o600))
	t.Setenv("GEOTASK_LOG_LEVEL", "debug")

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, model.BackendRemote, cfg.Backend.Mode)
	assert.Equal(t, "https://tasks.example.com", cfg.Backend.ServerURL)
	assert.Equal(t, "diff", cfg.Geofence.Strategy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 15.0, cfg.Sync.OperationTimeout().Seconds())
	// untouched keys keep their defaults
	assert.Equal(t, "sqlite", cfg.Backend.Driver)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("geofence:\n  identifier: uuid\n"), 0o600))

	_, err := model.LoadConfig(path)
	assert.ErrorContains(t, err, "geofence.identifier")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.AppConfig)
		want   string
	}{
		{"defaults", func(*model.AppConfig) {}, ""},
		{"bad mode", func(c *model.AppConfig) { c.Backend.Mode = "cloud" }, "backend.mode"},
		{"bad strategy", func(c *model.AppConfig) { c.Geofence.Strategy = "some" }, "geofence.strategy"},
		{"zero radius", func(c *model.AppConfig) { c.Geofence.RadiusMeters = 0 }, "radius_meters"},
		{"negative interval", func(c *model.AppConfig) { c.Location.SampleIntervalSec = -1 }, "sample_interval_sec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := model.DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := model.DefaultConfig()
	cfg.Backend.Mode = model.BackendRemote
	cfg.Geofence.Identifier = "id"

	require.NoError(t, model.SaveConfig(path, cfg))

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
