package pcd

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// DefaultCapacity is the size in bytes of the device memory.
const DefaultCapacity = 512

// Storage is the byte store a Device dispatches sessions to.
// Positions are owned by the caller; a Storage never keeps a cursor.
type Storage interface {
	// Capacity returns the fixed size of the store in bytes.
	Capacity() int64

	// Seek computes a new position from pos, offset and whence.
	Seek(pos, offset int64, whence int) (int64, error)

	// Load copies up to len(p) bytes starting at pos into p and returns the count.
	Load(p []byte, pos int64) int

	// Store copies up to len(p) bytes from p into the store at pos.
	Store(p []byte, pos int64) (int, error)

	// Checksum returns a digest of the current contents.
	Checksum() uint64

	// Reset zero-fills the store.
	Reset()
}

// Region is a fixed-capacity, byte-addressable memory buffer.
//
// Region performs no locking. Concurrent Store calls over overlapping ranges
// race, and a Load running alongside a Store may observe a torn value.
// Wrap it in a LockedRegion when callers need serialized access.
type Region struct {
	buf []byte
}

var _ Storage = (*Region)(nil)

// NewRegion allocates a zero-filled region of the given capacity.
// A non-positive capacity falls back to DefaultCapacity.
func NewRegion(capacity int) *Region {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Region{buf: make([]byte, capacity)}
}

// Capacity implements Storage.Capacity.
func (r *Region) Capacity() int64 {
	return int64(len(r.buf))
}

// Seek implements Storage.Seek.
//
// whence follows io.Seeker: io.SeekStart is absolute, io.SeekCurrent is
// relative to pos and io.SeekEnd is relative to the capacity. The result must
// lie in [0, capacity]; the capacity itself is a valid position at which reads
// return nothing and writes fail.
func (r *Region) Seek(pos, offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = pos
	case io.SeekEnd:
		base = r.Capacity()
	default:
		return pos, newError(CodeInvalidArgument, "seek",
			fmt.Errorf("%w: whence %d", ErrInvalidArgument, whence))
	}

	// Compare against the distance to each bound so that large offsets cannot overflow.
	if offset < -base || offset > r.Capacity()-base {
		return pos, newError(CodeInvalidArgument, "seek",
			fmt.Errorf("%w: offset %d from %d out of bounds [0, %d]", ErrInvalidArgument, offset, base, r.Capacity()))
	}
	return base + offset, nil
}

// Load implements Storage.Load.
//
// Reads are short rather than failing: at most capacity-pos bytes are copied,
// and a position at or past the end yields 0.
func (r *Region) Load(p []byte, pos int64) int {
	if pos < 0 {
		return 0
	}
	n := r.available(pos, len(p))
	if n <= 0 {
		return 0
	}
	return copy(p[:n], r.buf[pos:pos+n])
}

// Store implements Storage.Store.
//
// Writes are truncated to the room left before the end; excess input is
// dropped. A write that cannot place a single byte fails with ErrOutOfSpace.
func (r *Region) Store(p []byte, pos int64) (int, error) {
	if pos < 0 {
		return 0, newError(CodeInvalidArgument, "write",
			fmt.Errorf("%w: negative position %d", ErrInvalidArgument, pos))
	}
	n := r.available(pos, len(p))
	if n <= 0 {
		return 0, newError(CodeOutOfSpace, "write",
			fmt.Errorf("%w: position %d, capacity %d", ErrOutOfSpace, pos, r.Capacity()))
	}
	return copy(r.buf[pos:pos+n], p[:n]), nil
}

// Checksum implements Storage.Checksum using xxhash64.
func (r *Region) Checksum() uint64 {
	return xxhash.Sum64(r.buf)
}

// Reset implements Storage.Reset.
func (r *Region) Reset() {
	clear(r.buf)
}

// available clamps count to the bytes left between pos and the end.
func (r *Region) available(pos int64, count int) int64 {
	left := r.Capacity() - pos
	if left < 0 {
		left = 0
	}
	return min(int64(count), left)
}
