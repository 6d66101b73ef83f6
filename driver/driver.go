// Package driver registers a pcd.Device with a device host and removes it
// again on shutdown.
//
// Registration is transactional. Load performs four steps in order:
//
//  1. allocate a device number
//  2. bind the device's open dispatch to that number
//  3. create the device class
//  4. create the device node
//
// If any step fails, the steps already performed are undone in reverse order
// and Load returns the failure. Unload undoes all four, node first.
//
// The device itself does not depend on registration: it can be built, used
// and discarded whether or not Load succeeds.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/pcd"
	"github.com/input-output-hk/catalyst-forge-libs/pcd/devfs"
	"github.com/input-output-hk/catalyst-forge-libs/pcd/internal/scope"
)

// minorCount is the number of minors the driver reserves.
const minorCount = 1

// Host is the device-number authority and node publisher a driver registers
// with. *devfs.Host implements it.
type Host interface {
	AllocRegion(name string, count int) (devfs.Number, error)
	UnregisterRegion(n devfs.Number, count int) error
	AddCdev(n devfs.Number, count int, open devfs.OpenFunc) error
	DelCdev(n devfs.Number) error
	CreateClass(name string) error
	DestroyClass(name string) error
	CreateNode(class string, n devfs.Number, name string) (string, error)
	DestroyNode(class string, n devfs.Number) error
}

var _ Host = (*devfs.Host)(nil)

// LoadError reports the registration step that failed.
type LoadError struct {
	Step devfs.Step // Step that failed
	Err  error      // The underlying error, joined with any unwind failure
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("driver: %s failed: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error for error chain traversal.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Registration is a device registered with a host.
type Registration struct {
	host     Host
	device   *pcd.Device
	metadata Metadata
	class    string
	number   devfs.Number
	nodePath string
	logger   *slog.Logger

	// mu guards resources
	mu        sync.Mutex
	resources *scope.Scope
}

// Load registers dev with host.
//
// The context is checked between steps; cancellation unwinds whatever was
// already registered and returns the context error.
//
// Example usage:
//
//	host := devfs.NewHost()
//	dev := pcd.New()
//	reg, err := driver.Load(ctx, host, dev, driver.WithLogger(slog.Default()))
//	if err != nil {
//	    return err
//	}
//	defer reg.Unload()
func Load(ctx context.Context, host Host, dev *pcd.Device, opts ...Option) (*Registration, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if host == nil {
		return nil, fmt.Errorf("host cannot be nil")
	}
	if dev == nil {
		return nil, fmt.Errorf("device cannot be nil")
	}

	options := defaultOptions()
	applyOptions(options, opts)

	if err := options.metadata.Validate(); err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	logger := options.logger
	if logger != nil {
		logger.InfoContext(ctx, "initializing driver",
			"driver", options.metadata.Name,
			"version", options.metadata.Version,
			"device", dev.Name())
	}

	r := &Registration{
		host:      host,
		device:    dev,
		metadata:  options.metadata,
		class:     options.className,
		logger:    logger,
		resources: scope.New(),
	}

	fail := func(step devfs.Step, err error) (*Registration, error) {
		if logger != nil {
			logger.ErrorContext(ctx, "driver initialization failed, unwinding",
				"step", string(step),
				"acquired", r.resources.Names(),
				"error", err)
		}
		if releaseErr := r.resources.Release(); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
		return nil, &LoadError{Step: step, Err: err}
	}

	// 1. device number
	if err := ctx.Err(); err != nil {
		return fail(devfs.StepAllocRegion, err)
	}
	number, err := host.AllocRegion(options.regionName, minorCount)
	if err != nil {
		return fail(devfs.StepAllocRegion, err)
	}
	r.number = number
	r.resources.Acquire(string(devfs.StepAllocRegion), func() error {
		return host.UnregisterRegion(number, minorCount)
	})

	// 2. open dispatch
	if err := ctx.Err(); err != nil {
		return fail(devfs.StepAddCdev, err)
	}
	open := func() (devfs.File, error) { return dev.Open(), nil }
	if err := host.AddCdev(number, minorCount, open); err != nil {
		return fail(devfs.StepAddCdev, err)
	}
	r.resources.Acquire(string(devfs.StepAddCdev), func() error {
		return host.DelCdev(number)
	})

	// 3. class
	if err := ctx.Err(); err != nil {
		return fail(devfs.StepCreateClass, err)
	}
	if err := host.CreateClass(r.class); err != nil {
		return fail(devfs.StepCreateClass, err)
	}
	r.resources.Acquire(string(devfs.StepCreateClass), func() error {
		return host.DestroyClass(r.class)
	})

	// 4. node
	if err := ctx.Err(); err != nil {
		return fail(devfs.StepCreateNode, err)
	}
	path, err := host.CreateNode(r.class, number, dev.Name())
	if err != nil {
		return fail(devfs.StepCreateNode, err)
	}
	r.nodePath = path
	r.resources.Acquire(string(devfs.StepCreateNode), func() error {
		return host.DestroyNode(r.class, number)
	})

	if logger != nil {
		logger.InfoContext(ctx, "driver loaded",
			"driver", r.metadata.Name,
			"number", number.String(),
			"node", path,
			"class", r.class,
			"capacity", dev.Capacity())
	}
	return r, nil
}

// Device returns the registered device.
func (r *Registration) Device() *pcd.Device {
	return r.device
}

// Metadata returns the metadata the driver was loaded with.
func (r *Registration) Metadata() Metadata {
	return r.metadata
}

// Number returns the allocated device number.
func (r *Registration) Number() devfs.Number {
	return r.number
}

// NodePath returns the path of the device node.
func (r *Registration) NodePath() string {
	return r.nodePath
}

// Class returns the device class name.
func (r *Registration) Class() string {
	return r.class
}

// Loaded reports whether the registration has not been unloaded yet.
func (r *Registration) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resources.Len() > 0
}

// Unload removes the node, the class, the open dispatch and the device
// number, in that order, then clears the device memory.
//
// Every step is attempted even if an earlier one fails; the failures are
// joined. Calling Unload again is a no-op.
func (r *Registration) Unload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resources.Len() == 0 {
		return nil
	}

	if r.logger != nil {
		r.logger.Info("cleaning up driver",
			"driver", r.metadata.Name,
			"open_sessions", r.device.Sessions())
	}

	err := r.resources.Release()
	r.device.Reset()

	if err != nil {
		if r.logger != nil {
			r.logger.Error("driver unload incomplete", "error", err)
		}
		return fmt.Errorf("driver: unload: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("driver unloaded", "driver", r.metadata.Name)
	}
	return nil
}
