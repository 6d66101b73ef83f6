package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/pcd"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "pcd", cfg.Device.Name)
	assert.Equal(t, 512, cfg.Device.Capacity)
	assert.False(t, cfg.Device.Locking)
	assert.Equal(t, "pcd_devices", cfg.Driver.RegionName)
	assert.Equal(t, "pcd_class", cfg.Driver.ClassName)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty name", mutate: func(c *Config) { c.Device.Name = "" }, wantErr: "device name"},
		{name: "name with slash", mutate: func(c *Config) { c.Device.Name = "a/b" }, wantErr: "cannot contain"},
		{name: "zero capacity", mutate: func(c *Config) { c.Device.Capacity = 0 }, wantErr: "capacity"},
		{name: "negative capacity", mutate: func(c *Config) { c.Device.Capacity = -1 }, wantErr: "capacity"},
		{name: "empty region", mutate: func(c *Config) { c.Driver.RegionName = "" }, wantErr: "region name"},
		{name: "empty class", mutate: func(c *Config) { c.Driver.ClassName = "" }, wantErr: "class name"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "log level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeviceOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device.Name = "scratch"
	cfg.Device.Capacity = 64
	cfg.Device.Locking = true

	dev := pcd.New(cfg.DeviceOptions(nil)...)
	assert.Equal(t, "scratch", dev.Name())
	assert.Equal(t, int64(64), dev.Capacity())
	_, locked := dev.Storage().(*pcd.LockedRegion)
	assert.True(t, locked)
	assert.Len(t, cfg.DriverOptions(nil), 3)
}

func TestLoaderLoad(t *testing.T) {
	t.Run("defaults when no path", func(t *testing.T) {
		cfg, err := NewLoader("").Load()
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("defaults when file does not exist", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.json")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("json file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pcd.json")
		data := `{
			"device": {"name": "scratch", "capacity": 1024, "locking": true},
			"logging": {"level": "debug"}
		}`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		loader := NewLoader(path)
		assert.Equal(t, path, loader.ConfigPath())
		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "scratch", cfg.Device.Name)
		assert.Equal(t, 1024, cfg.Device.Capacity)
		assert.True(t, cfg.Device.Locking)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "text", cfg.Logging.Format)
		assert.Equal(t, "pcd_class", cfg.Driver.ClassName)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pcd.yaml")
		data := "driver:\n  region_name: scratch_devices\n  class_name: scratch_class\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "scratch_devices", cfg.Driver.RegionName)
		assert.Equal(t, "scratch_class", cfg.Driver.ClassName)
		assert.Equal(t, 512, cfg.Device.Capacity)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pcd.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"device": {"capacity": 1024}}`), 0o644))
		t.Setenv("PCD_DEVICE_CAPACITY", "2048")
		t.Setenv("PCD_LOGGING_FORMAT", "json")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2048, cfg.Device.Capacity)
		assert.Equal(t, "json", cfg.Logging.Format)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pcd.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"device": `), 0o644))

		_, err := Load(path)
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pcd.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"device": {"capacity": 0}}`), 0o644))

		_, err := Load(path)
		assert.ErrorContains(t, err, "invalid config")
	})
}
