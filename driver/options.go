package driver

import "log/slog"

// Default registration names.
const (
	DefaultRegionName = "pcd_devices"
	DefaultClassName  = "pcd_class"
)

// loadOptions holds configuration options for Load.
type loadOptions struct {
	regionName string
	className  string
	metadata   Metadata
	logger     *slog.Logger
}

// Option is a functional option for configuring Load.
type Option func(*loadOptions)

// WithRegionName sets the name the device number is allocated under.
func WithRegionName(name string) Option {
	return func(opts *loadOptions) {
		if name != "" {
			opts.regionName = name
		}
	}
}

// WithClassName sets the device class the node is created in.
func WithClassName(name string) Option {
	return func(opts *loadOptions) {
		if name != "" {
			opts.className = name
		}
	}
}

// WithMetadata replaces DefaultMetadata.
func WithMetadata(m Metadata) Option {
	return func(opts *loadOptions) {
		opts.metadata = m
	}
}

// WithLogger configures the driver with a custom logger.
// If logger is nil, logging will be disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *loadOptions) {
		opts.logger = logger
	}
}

// defaultOptions returns the default configuration options.
func defaultOptions() *loadOptions {
	return &loadOptions{
		regionName: DefaultRegionName,
		className:  DefaultClassName,
		metadata:   DefaultMetadata(),
		logger:     nil,
	}
}

// applyOptions applies the given options to the load options.
func applyOptions(opts *loadOptions, options []Option) {
	for _, option := range options {
		option(opts)
	}
}
