package pcd

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorCode classifies a failed device operation.
type ErrorCode string

const (
	// CodeInvalidArgument indicates a bad seek mode or an out-of-bounds target position.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeOutOfSpace indicates a write at or past the end of the region.
	CodeOutOfSpace ErrorCode = "OUT_OF_SPACE"

	// CodeTransferFault indicates bytes could not be copied across the caller boundary.
	CodeTransferFault ErrorCode = "TRANSFER_FAULT"

	// CodeClosed indicates an operation on a session that was already closed.
	CodeClosed ErrorCode = "CLOSED"

	// CodeUnknown is reported for errors that carry no device code.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Sentinel errors, comparable with errors.Is.
// None of them invalidates the region or any other open session.
var (
	// ErrInvalidArgument is returned by Seek for an unknown whence or a target
	// outside [0, capacity]. The session position is left unchanged.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfSpace is returned by Write when no byte of the payload fits.
	ErrOutOfSpace = errors.New("no space left on device")

	// ErrTransferFault is returned when the caller-side reader or writer fails.
	// The session position and the region contents are left unchanged.
	ErrTransferFault = errors.New("bad address")

	// ErrClosed is returned by operations on a closed session.
	ErrClosed = fmt.Errorf("session %w", fs.ErrClosed)
)

// Error carries the failing operation and its code alongside the sentinel.
type Error struct {
	Code ErrorCode // Classification of the failure
	Op   string    // Operation that failed (seek, read, write, close)
	Err  error     // Underlying sentinel, possibly wrapping a caller error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("pcd: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// transferFault wraps a caller-side I/O failure so that both ErrTransferFault
// and the original cause match with errors.Is.
func transferFault(op string, cause error) *Error {
	return newError(CodeTransferFault, op, fmt.Errorf("%w: %w", ErrTransferFault, cause))
}

// CodeOf returns the ErrorCode carried by err, or CodeUnknown.
// A nil error has no code and yields the empty string.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrOutOfSpace):
		return CodeOutOfSpace
	case errors.Is(err, ErrTransferFault):
		return CodeTransferFault
	case errors.Is(err, fs.ErrClosed):
		return CodeClosed
	}
	return CodeUnknown
}
