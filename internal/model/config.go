package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Backend modes.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// BackendConfig selects where lists, tasks and subtasks are persisted.
type BackendConfig struct {
	// Mode is "local" (SQL database opened in-process) or "remote"
	// (HTTP server at ServerURL).
	Mode string `mapstructure:"mode" yaml:"mode"`

	// Driver is the database/sql driver for local mode: "sqlite" or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is the data source name handed to the driver.
	DSN string `mapstructure:"dsn" yaml:"dsn"`

	// ServerURL is the base URL of the backend in remote mode.
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
}

// SyncConfig tunes the sync engine.
type SyncConfig struct {
	// OperationTimeoutSec bounds each remote call. Zero disables the timeout.
	OperationTimeoutSec int `mapstructure:"operation_timeout_sec" yaml:"operation_timeout_sec"`
}

// OperationTimeout returns the configured per-call timeout.
func (c SyncConfig) OperationTimeout() time.Duration {
	return time.Duration(c.OperationTimeoutSec) * time.Second
}

// GeofenceConfig tunes the geofence registration engine.
type GeofenceConfig struct {
	RadiusMeters float64 `mapstructure:"radius_meters" yaml:"radius_meters"`

	// Strategy is "full" (unregister all, register all) or "diff".
	Strategy string `mapstructure:"strategy" yaml:"strategy"`

	// Identifier is "name" or "id": which list field names the region.
	Identifier string `mapstructure:"identifier" yaml:"identifier"`
}

// LocationConfig tunes the location sampling pipeline.
type LocationConfig struct {
	SampleIntervalSec int     `mapstructure:"sample_interval_sec" yaml:"sample_interval_sec"`
	CachePath         string  `mapstructure:"cache_path" yaml:"cache_path"`
	DefaultLatitude   float64 `mapstructure:"default_latitude" yaml:"default_latitude"`
	DefaultLongitude  float64 `mapstructure:"default_longitude" yaml:"default_longitude"`
}

// SampleInterval returns the foreground sampling cadence.
func (c LocationConfig) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalSec) * time.Second
}

// DefaultPoint returns the fallback map centre.
func (c LocationConfig) DefaultPoint() GeoPoint {
	return GeoPoint{Latitude: c.DefaultLatitude, Longitude: c.DefaultLongitude}
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	File   string `mapstructure:"file" yaml:"file"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ServerConfig holds settings for the reference backend.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend  BackendConfig  `mapstructure:"backend" yaml:"backend"`
	Sync     SyncConfig     `mapstructure:"sync" yaml:"sync"`
	Geofence GeofenceConfig `mapstructure:"geofence" yaml:"geofence"`
	Location LocationConfig `mapstructure:"location" yaml:"location"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

// configDir returns ~/.config/geotask, falling back to the working directory.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "geotask")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/geotask/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *AppConfig {
	dir := configDir()
	return &AppConfig{
		Backend: BackendConfig{
			Mode:      BackendLocal,
			Driver:    "sqlite",
			DSN:       filepath.Join(dir, "geotask.db"),
			ServerURL: "http://localhost:8080",
		},
		Sync: SyncConfig{OperationTimeoutSec: 0},
		Geofence: GeofenceConfig{
			RadiusMeters: 200,
			Strategy:     "full",
			Identifier:   "name",
		},
		Location: LocationConfig{
			SampleIntervalSec: 60,
			CachePath:         filepath.Join(dir, "location.yaml"),
			DefaultLatitude:   55.676098,
			DefaultLongitude:  12.568337,
		},
		Log: LogConfig{
			Level:  "info",
			File:   filepath.Join(dir, "geotask.log"),
			Format: "text",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// setDefaults registers every default value with v so missing keys resolve
// to sensible values.
func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("backend.mode", d.Backend.Mode)
	v.SetDefault("backend.driver", d.Backend.Driver)
	v.SetDefault("backend.dsn", d.Backend.DSN)
	v.SetDefault("backend.server_url", d.Backend.ServerURL)
	v.SetDefault("sync.operation_timeout_sec", d.Sync.OperationTimeoutSec)
	v.SetDefault("geofence.radius_meters", d.Geofence.RadiusMeters)
	v.SetDefault("geofence.strategy", d.Geofence.Strategy)
	v.SetDefault("geofence.identifier", d.Geofence.Identifier)
	v.SetDefault("location.sample_interval_sec", d.Location.SampleIntervalSec)
	v.SetDefault("location.cache_path", d.Location.CachePath)
	v.SetDefault("location.default_latitude", d.Location.DefaultLatitude)
	v.SetDefault("location.default_longitude", d.Location.DefaultLongitude)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.addr", d.Server.Addr)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with GEOTASK_ override file values
// (GEOTASK_BACKEND_MODE, GEOTASK_LOG_LEVEL, ...). If the file does not exist,
// defaults are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("geotask")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c *AppConfig) Validate() error {
	switch c.Backend.Mode {
	case BackendLocal, BackendRemote:
	default:
		return fmt.Errorf("backend.mode must be %q or %q, got %q", BackendLocal, BackendRemote, c.Backend.Mode)
	}
	switch c.Geofence.Strategy {
	case "full", "diff":
	default:
		return fmt.Errorf("geofence.strategy must be \"full\" or \"diff\", got %q", c.Geofence.Strategy)
	}
	switch c.Geofence.Identifier {
	case "name", "id":
	default:
		return fmt.Errorf("geofence.identifier must be \"name\" or \"id\", got %q", c.Geofence.Identifier)
	}
	if c.Geofence.RadiusMeters <= 0 {
		return fmt.Errorf("geofence.radius_meters must be positive")
	}
	if c.Location.SampleIntervalSec < 0 {
		return fmt.Errorf("location.sample_interval_sec must not be negative")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
