package pcd

import (
	"io/fs"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Device owns the single memory region of a pseudo character device and hands
// out sessions over it.
//
// A process is expected to construct one Device and pass it by reference to
// whatever registers it; there is no package-level device.
type Device struct {
	name     string
	storage  Storage
	logger   *slog.Logger
	observer Observer
	created  time.Time

	// sessions counts currently open sessions
	sessions atomic.Int64
}

// New creates a Device with a zero-filled region.
//
// Example usage:
//
//	dev := pcd.New(
//	    pcd.WithLogger(slog.Default()),
//	    pcd.WithLocking(true),
//	)
//	s := dev.Open()
//	defer s.Close()
func New(opts ...Option) *Device {
	options := defaultOptions()
	applyOptions(options, opts)

	region := NewRegion(options.capacity)
	var storage Storage = region
	if options.locking {
		storage = NewLockedRegion(region)
	}

	return &Device{
		name:     options.name,
		storage:  storage,
		logger:   options.logger,
		observer: options.observer,
		created:  time.Now(),
	}
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Capacity returns the region size in bytes.
func (d *Device) Capacity() int64 {
	return d.storage.Capacity()
}

// Storage returns the store sessions are dispatched to.
//
//nolint:ireturn // the concrete store depends on WithLocking.
func (d *Device) Storage() Storage {
	return d.storage
}

// Sessions returns the number of sessions currently open.
func (d *Device) Sessions() int {
	return int(d.sessions.Load())
}

// Checksum returns a digest of the region contents.
func (d *Device) Checksum() uint64 {
	return d.storage.Checksum()
}

// Reset zero-fills the region. Open sessions keep their positions.
func (d *Device) Reset() {
	d.storage.Reset()
	if d.logger != nil {
		d.logger.Info("device memory cleared", "device", d.name)
	}
}

// Open starts a new session positioned at 0. It always succeeds.
//
// Sessions share the region without arbitration: two sessions writing the
// same range race unless the device was built WithLocking(true).
func (d *Device) Open() *Session {
	s := &Session{
		id:  uuid.NewString(),
		dev: d,
	}
	open := d.sessions.Add(1)
	if d.observer != nil {
		d.observer.SessionOpened(d.name)
	}

	if d.logger != nil {
		d.logger.Debug("session opened",
			"device", d.name,
			"session", s.id,
			"open_sessions", open)
	}
	return s
}

// deviceInfo describes the device node for Session.Stat.
type deviceInfo struct {
	name    string
	size    int64
	modTime time.Time
}

var _ fs.FileInfo = deviceInfo{}

func (i deviceInfo) Name() string       { return i.name }
func (i deviceInfo) Size() int64        { return i.size }
func (i deviceInfo) Mode() fs.FileMode  { return fs.ModeDevice | fs.ModeCharDevice | 0o666 }
func (i deviceInfo) ModTime() time.Time { return i.modTime }
func (i deviceInfo) IsDir() bool        { return false }
func (i deviceInfo) Sys() any           { return nil }
