// Package config loads pcd device and driver settings from a JSON or YAML
// file and PCD_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/pcd"
	"github.com/input-output-hk/catalyst-forge-libs/pcd/driver"
)

// Config is the complete pcd configuration.
type Config struct {
	Device  DeviceConfig  `json:"device" mapstructure:"device"`
	Driver  DriverConfig  `json:"driver" mapstructure:"driver"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// DeviceConfig holds the settings of the device itself.
type DeviceConfig struct {
	Name     string `json:"name" mapstructure:"name"`
	Capacity int    `json:"capacity" mapstructure:"capacity"`
	Locking  bool   `json:"locking" mapstructure:"locking"`
}

// DriverConfig holds the names used when registering with the host.
type DriverConfig struct {
	RegionName string `json:"region_name" mapstructure:"region_name"`
	ClassName  string `json:"class_name" mapstructure:"class_name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:     pcd.DefaultName,
			Capacity: pcd.DefaultCapacity,
		},
		Driver: DriverConfig{
			RegionName: driver.DefaultRegionName,
			ClassName:  driver.DefaultClassName,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values the device cannot use.
func (c *Config) Validate() error {
	if c.Device.Name == "" {
		return fmt.Errorf("device name cannot be empty")
	}
	if strings.ContainsRune(c.Device.Name, '/') {
		return fmt.Errorf("device name %q cannot contain '/'", c.Device.Name)
	}
	if c.Device.Capacity <= 0 {
		return fmt.Errorf("device capacity must be positive, got %d", c.Device.Capacity)
	}
	if c.Driver.RegionName == "" {
		return fmt.Errorf("driver region name cannot be empty")
	}
	if c.Driver.ClassName == "" {
		return fmt.Errorf("driver class name cannot be empty")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (must be text or json)", c.Logging.Format)
	}
	return nil
}

// DeviceOptions returns the pcd options described by the configuration.
func (c *Config) DeviceOptions(logger *slog.Logger) []pcd.Option {
	return []pcd.Option{
		pcd.WithName(c.Device.Name),
		pcd.WithCapacity(c.Device.Capacity),
		pcd.WithLocking(c.Device.Locking),
		pcd.WithLogger(logger),
	}
}

// DriverOptions returns the driver options described by the configuration.
func (c *Config) DriverOptions(logger *slog.Logger) []driver.Option {
	return []driver.Option{
		driver.WithRegionName(c.Driver.RegionName),
		driver.WithClassName(c.Driver.ClassName),
		driver.WithLogger(logger),
	}
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", level)
	}
}
