package pcd

import (
	"fmt"
	"io"
	"io/fs"
)

// Session is one open handle on a Device with its own position.
//
// Position is private to the session and is never synchronized; a Session
// must not be used by more than one goroutine at a time. Different sessions
// may be used concurrently.
//
// Session implements io.Reader, io.Writer, io.Seeker, io.ReaderAt and
// io.Closer with two deliberate differences from the io contracts:
//   - Write returns a short count without an error when the payload only
//     partly fits before the end of the region.
//   - Read at the end of the region returns 0 and io.EOF so io.Copy and
//     io.ReadAll terminate. ReadN is the read that never fails at the end of
//     the region: it returns an empty slice and a nil error there.
type Session struct {
	id     string
	dev    *Device
	pos    int64
	closed bool
}

// ID returns the session identifier used in log records.
func (s *Session) ID() string {
	return s.id
}

// Name returns the name of the device the session is open on.
func (s *Session) Name() string {
	return s.dev.name
}

// Position returns the current position.
func (s *Session) Position() int64 {
	return s.pos
}

// Stat describes the device as a character device whose size is the region capacity.
func (s *Session) Stat() (fs.FileInfo, error) {
	if s.closed {
		return nil, newError(CodeClosed, "stat", ErrClosed)
	}
	return deviceInfo{
		name:    s.dev.name,
		size:    s.dev.Capacity(),
		modTime: s.dev.created,
	}, nil
}

// Read reads up to len(p) bytes from the current position and advances it.
// Fewer bytes are returned when the end of the region is closer than len(p).
func (s *Session) Read(p []byte) (n int, err error) {
	defer func() { s.observe("read", n, err) }()
	if s.closed {
		return 0, newError(CodeClosed, "read", ErrClosed)
	}
	n = s.load(p)
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadN reads up to count bytes from the current position and advances it.
// The returned slice holds exactly the bytes read and is empty at the end of
// the region; reaching the end is not an error.
func (s *Session) ReadN(count int) (b []byte, err error) {
	defer func() { s.observe("read", len(b), err) }()
	if s.closed {
		return nil, newError(CodeClosed, "read", ErrClosed)
	}
	if count < 0 {
		return nil, newError(CodeInvalidArgument, "read",
			fmt.Errorf("%w: negative count %d", ErrInvalidArgument, count))
	}
	buf := make([]byte, s.room(count))
	n := s.load(buf)
	return buf[:n], nil
}

// ReadAt reads len(p) bytes at off without moving the position.
// It returns io.EOF when fewer than len(p) bytes remain after off.
func (s *Session) ReadAt(p []byte, off int64) (n int, err error) {
	defer func() { s.observe("readat", n, err) }()
	if s.closed {
		return 0, newError(CodeClosed, "readat", ErrClosed)
	}
	if off < 0 || off > s.dev.Capacity() {
		return 0, newError(CodeInvalidArgument, "readat",
			fmt.Errorf("%w: offset %d out of bounds [0, %d]", ErrInvalidArgument, off, s.dev.Capacity()))
	}
	n = s.dev.storage.Load(p, off)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadTo copies up to count bytes from the current position to w.
// If w fails, ReadTo returns ErrTransferFault and the position is unchanged.
func (s *Session) ReadTo(w io.Writer, count int) (n int, err error) {
	defer func() { s.observe("read", n, err) }()
	if s.closed {
		return 0, newError(CodeClosed, "read", ErrClosed)
	}
	if count < 0 {
		return 0, newError(CodeInvalidArgument, "read",
			fmt.Errorf("%w: negative count %d", ErrInvalidArgument, count))
	}
	buf := make([]byte, s.room(count))
	n = s.dev.storage.Load(buf, s.pos)
	if n == 0 {
		s.logNoData("read")
		return 0, nil
	}
	if _, err := w.Write(buf[:n]); err != nil {
		s.logFault("read", err)
		return 0, transferFault("read", err)
	}
	s.advance("read", n)
	return n, nil
}

// Write writes p at the current position and advances it by the bytes written.
// Bytes that do not fit before the end of the region are dropped and the
// shorter count is returned without an error. ErrOutOfSpace is returned only
// when no byte fits.
func (s *Session) Write(p []byte) (n int, err error) {
	defer func() { s.observe("write", n, err) }()
	if s.closed {
		return 0, newError(CodeClosed, "write", ErrClosed)
	}
	return s.write(p)
}

// WriteFrom copies up to count bytes from r to the current position.
//
// The count is clamped to the room left before anything is read from r.
// If r cannot supply the clamped count, WriteFrom returns ErrTransferFault and
// neither the region nor the position change.
func (s *Session) WriteFrom(r io.Reader, count int) (n int, err error) {
	defer func() { s.observe("write", n, err) }()
	if s.closed {
		return 0, newError(CodeClosed, "write", ErrClosed)
	}
	if count < 0 {
		return 0, newError(CodeInvalidArgument, "write",
			fmt.Errorf("%w: negative count %d", ErrInvalidArgument, count))
	}
	room := s.room(count)
	if room <= 0 {
		return s.write(nil)
	}

	staged := make([]byte, room)
	if _, err := io.ReadFull(r, staged); err != nil {
		s.logFault("write", err)
		return 0, transferFault("write", err)
	}
	return s.write(staged)
}

func (s *Session) write(p []byte) (int, error) {
	n, err := s.dev.storage.Store(p, s.pos)
	if err != nil {
		if s.dev.logger != nil {
			s.dev.logger.Warn("no space to write",
				"device", s.dev.name,
				"session", s.id,
				"position", s.pos,
				"requested", len(p))
		}
		return 0, err
	}
	s.advance("write", n)
	return n, nil
}

// Seek sets the position for the next Read or Write.
// On error the position is left unchanged and the current position is returned.
func (s *Session) Seek(offset int64, whence int) (pos int64, err error) {
	defer func() { s.observe("seek", 0, err) }()
	if s.closed {
		return 0, newError(CodeClosed, "seek", ErrClosed)
	}
	pos, err = s.dev.storage.Seek(s.pos, offset, whence)
	if err != nil {
		if s.dev.logger != nil {
			s.dev.logger.Warn("invalid seek",
				"device", s.dev.name,
				"session", s.id,
				"position", s.pos,
				"offset", offset,
				"whence", whence)
		}
		return s.pos, err
	}

	if s.dev.logger != nil {
		s.dev.logger.Debug("seek",
			"device", s.dev.name,
			"session", s.id,
			"from", s.pos,
			"to", pos)
	}
	s.pos = pos
	return pos, nil
}

// Close ends the session. Closing a session twice returns ErrClosed and has
// no effect on other sessions.
func (s *Session) Close() error {
	if s.closed {
		return newError(CodeClosed, "close", ErrClosed)
	}
	s.closed = true
	open := s.dev.sessions.Add(-1)
	if s.dev.observer != nil {
		s.dev.observer.SessionClosed(s.dev.name)
	}

	if s.dev.logger != nil {
		s.dev.logger.Debug("session closed",
			"device", s.dev.name,
			"session", s.id,
			"open_sessions", open)
	}
	return nil
}

// load reads into p at the current position and advances it.
func (s *Session) load(p []byte) int {
	n := s.dev.storage.Load(p, s.pos)
	if n == 0 {
		s.logNoData("read")
		return 0
	}
	s.advance("read", n)
	return n
}

// room clamps count to the bytes left between the position and the end.
func (s *Session) room(count int) int {
	left := s.dev.Capacity() - s.pos
	if left <= 0 {
		return 0
	}
	return int(min(int64(count), left))
}

func (s *Session) advance(op string, n int) {
	from := s.pos
	s.pos += int64(n)

	if s.dev.logger != nil {
		s.dev.logger.Debug(op,
			"device", s.dev.name,
			"session", s.id,
			"bytes", n,
			"from", from,
			"to", s.pos)
	}
}

func (s *Session) logNoData(op string) {
	if s.dev.logger != nil {
		s.dev.logger.Debug("no bytes to "+op,
			"device", s.dev.name,
			"session", s.id,
			"position", s.pos)
	}
}

func (s *Session) logFault(op string, err error) {
	if s.dev.logger != nil {
		s.dev.logger.Error("transfer fault",
			"device", s.dev.name,
			"session", s.id,
			"op", op,
			"position", s.pos,
			"error", err)
	}
}

func (s *Session) observe(op string, n int, err error) {
	if s.dev.observer != nil {
		s.dev.observer.Operation(s.dev.name, op, n, err)
	}
}
