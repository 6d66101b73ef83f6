package devfs

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
)

// FirstDynamicMajor is the first major number handed out by AllocRegion.
// 240-254 are reserved for local and experimental use.
const FirstDynamicMajor = 240

// hostOptions holds configuration options for a Host.
type hostOptions struct {
	fs         billy.Filesystem
	firstMajor uint32
	logger     *slog.Logger
}

// Option is a functional option for configuring a Host.
type Option func(*hostOptions)

// WithFilesystem sets the filesystem the host publishes nodes and classes on.
// If fsys is nil, an in-memory filesystem is used.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(opts *hostOptions) {
		opts.fs = fsys
	}
}

// WithFirstMajor sets the first major number handed out by AllocRegion.
func WithFirstMajor(major uint32) Option {
	return func(opts *hostOptions) {
		opts.firstMajor = major
	}
}

// WithLogger configures the host with a custom logger.
// If logger is nil, logging will be disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *hostOptions) {
		opts.logger = logger
	}
}

// defaultOptions returns the default configuration options.
func defaultOptions() *hostOptions {
	return &hostOptions{
		fs:         nil, // memfs, created in NewHost
		firstMajor: FirstDynamicMajor,
		logger:     nil,
	}
}

// applyOptions applies the given options to the host options.
func applyOptions(opts *hostOptions, options []Option) {
	for _, option := range options {
		option(opts)
	}
}
