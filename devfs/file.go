package devfs

import "io/fs"

// File represents an open handle on a device node.
// It matches the file contract used across the library: positioned reads,
// seeks and writes behave like an *os.File opened on a character device.
type File interface {
	Close() error
	Name() string
	Read(p []byte) (n int, err error)
	ReadAt(p []byte, off int64) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
	Stat() (fs.FileInfo, error)
	Write(p []byte) (n int, err error)
}

// OpenFunc is the open dispatch bound to a character device.
// It is invoked once per OpenNode call and returns a fresh handle.
type OpenFunc func() (File, error)
