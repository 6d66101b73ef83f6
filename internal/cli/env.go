package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/pcd"
	"github.com/input-output-hk/catalyst-forge-libs/pcd/config"
	"github.com/input-output-hk/catalyst-forge-libs/pcd/devfs"
	"github.com/input-output-hk/catalyst-forge-libs/pcd/driver"
	"github.com/input-output-hk/catalyst-forge-libs/pcd/metrics"
)

// environment is a loaded driver and the host it is registered with.
type environment struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	host    *devfs.Host
	reg     *driver.Registration
}

// load resolves the configuration, applies flag overrides and loads the
// driver. The caller must call unload.
func (f *rootFlags) load(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if cmd.Flags().Changed("locking") {
		cfg.Device.Locking = f.locking
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics()
	host := devfs.NewHost(devfs.WithLogger(logger))
	dev := pcd.New(append(cfg.DeviceOptions(logger), pcd.WithObserver(m))...)

	reg, err := driver.Load(cmd.Context(), host, dev, cfg.DriverOptions(logger)...)
	if err != nil {
		return nil, err
	}

	return &environment{
		config:  cfg,
		logger:  logger,
		metrics: m,
		host:    host,
		reg:     reg,
	}, nil
}

// unload removes the driver, folding any failure into err.
func (e *environment) unload(err error) error {
	if unloadErr := e.reg.Unload(); unloadErr != nil && err == nil {
		return unloadErr
	}
	return err
}

// newLogger builds the slog logger described by cfg.
func newLogger(w io.Writer, cfg config.LoggingConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
}
