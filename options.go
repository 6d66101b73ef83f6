package pcd

import "log/slog"

// DefaultName is the node name the device is published under.
const DefaultName = "pcd"

// deviceOptions holds configuration options for a Device.
type deviceOptions struct {
	name     string
	capacity int
	locking  bool
	logger   *slog.Logger
	observer Observer
}

// Option is a functional option for configuring a Device.
type Option func(*deviceOptions)

// WithName sets the device name reported by sessions.
// An empty name keeps DefaultName.
func WithName(name string) Option {
	return func(opts *deviceOptions) {
		if name != "" {
			opts.name = name
		}
	}
}

// WithCapacity sets the region size in bytes. The size is fixed for the
// lifetime of the device; non-positive values keep DefaultCapacity.
func WithCapacity(capacity int) Option {
	return func(opts *deviceOptions) {
		if capacity > 0 {
			opts.capacity = capacity
		}
	}
}

// WithLocking wraps the region in a LockedRegion when enabled.
// The default is an unlocked region.
func WithLocking(enabled bool) Option {
	return func(opts *deviceOptions) {
		opts.locking = enabled
	}
}

// WithLogger configures the device with a custom logger.
// If logger is nil, logging will be disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *deviceOptions) {
		opts.logger = logger
	}
}

// WithObserver reports session events to o.
// If o is nil, no events are reported.
func WithObserver(o Observer) Option {
	return func(opts *deviceOptions) {
		opts.observer = o
	}
}

// defaultOptions returns the default configuration options.
func defaultOptions() *deviceOptions {
	return &deviceOptions{
		name:     DefaultName,
		capacity: DefaultCapacity,
		locking:  false,
		logger:   nil, // No default logger
	}
}

// applyOptions applies the given options to the device options.
func applyOptions(opts *deviceOptions, options []Option) {
	for _, option := range options {
		option(opts)
	}
}
