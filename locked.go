package pcd

import "sync"

// LockedRegion serializes access to a Region's buffer.
//
// Load and Store hold a read or write lock for the duration of the copy, so
// a reader never observes a partially applied write. Seek touches no shared
// state and never takes the lock. Session positions stay private to each
// session either way.
type LockedRegion struct {
	region *Region

	// mu guards region.buf
	mu sync.RWMutex
}

var _ Storage = (*LockedRegion)(nil)

// NewLockedRegion wraps region with a mutual-exclusion guard.
func NewLockedRegion(region *Region) *LockedRegion {
	return &LockedRegion{region: region}
}

// Capacity implements Storage.Capacity.
func (l *LockedRegion) Capacity() int64 {
	return l.region.Capacity()
}

// Seek implements Storage.Seek.
func (l *LockedRegion) Seek(pos, offset int64, whence int) (int64, error) {
	return l.region.Seek(pos, offset, whence)
}

// Load implements Storage.Load.
func (l *LockedRegion) Load(p []byte, pos int64) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.region.Load(p, pos)
}

// Store implements Storage.Store.
func (l *LockedRegion) Store(p []byte, pos int64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.region.Store(p, pos)
}

// Checksum implements Storage.Checksum.
func (l *LockedRegion) Checksum() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.region.Checksum()
}

// Reset implements Storage.Reset.
func (l *LockedRegion) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.region.Reset()
}
