// Package pcd emulates a pseudo character device: a single fixed-size memory
// region exposed through file-like sessions supporting positioned read,
// positioned write and seek.
//
// A Device owns one Region (DefaultCapacity bytes unless configured otherwise)
// and hands out Sessions. Each Session keeps its own position in
// [0, capacity]; all sessions share the region.
//
// # Bounds
//
//   - Seek accepts io.SeekStart, io.SeekCurrent and io.SeekEnd (relative to the
//     capacity). Targets outside [0, capacity] fail with ErrInvalidArgument and
//     leave the position unchanged.
//   - Reads are short: they return at most capacity-position bytes and return
//     nothing at the end of the region.
//   - Writes are truncated to the room left and report the shorter count as
//     success. Only a write that cannot place a single byte fails, with
//     ErrOutOfSpace.
//   - ReadTo and WriteFrom move bytes across a caller-supplied writer or
//     reader; a failure there is ErrTransferFault and changes nothing.
//
// # Thread safety
//
// The default Region has no internal lock. Concurrent writes to overlapping
// ranges race, and a read concurrent with a write may observe a torn value.
// Build the device WithLocking(true) to serialize buffer access through a
// LockedRegion. A single Session is not safe for concurrent use.
//
// # Observing
//
// WithObserver installs an Observer that is told about every session opened
// and closed and every read, write and seek with its byte count and error.
// The metrics package provides a Prometheus implementation.
//
// # Usage
//
//	dev := pcd.New(pcd.WithLogger(slog.Default()))
//	s := dev.Open()
//	defer s.Close()
//
//	n, err := s.Write([]byte("HelloWorld"))
//	_, err = s.Seek(0, io.SeekStart)
//	b, err := s.ReadN(5) // "Hello"
package pcd
