package remotefs

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures reported by a remote filesystem backend.
// The dispatcher maps codes, not messages, to HTTP responses.
type ErrorCode int

const (
	// ErrCodeNotFound indicates the target does not exist.
	//
	// HTTP Mapping: redirect to the index with a flash message (HTML), 404 (JSON)
	ErrCodeNotFound ErrorCode = iota + 1

	// ErrCodeAuthRequired indicates the share rejected the supplied
	// credentials, or requires credentials and none were given.
	//
	// HTTP Mapping: redirect to the index asking for credentials (HTML), 401 (JSON)
	ErrCodeAuthRequired

	// ErrCodeIO indicates any other transport or server failure.
	//
	// HTTP Mapping: redirect to the index with a flash message (HTML), 502 (JSON)
	ErrCodeIO

	// ErrCodeInvalidLocation indicates the target could not be parsed or
	// names a scheme no backend serves.
	//
	// HTTP Mapping: 400 Bad Request
	ErrCodeInvalidLocation
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNotFound:
		return "NotFound"
	case ErrCodeAuthRequired:
		return "AuthRequired"
	case ErrCodeIO:
		return "IOError"
	case ErrCodeInvalidLocation:
		return "InvalidLocation"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error is the error type returned by backends and by this package.
type Error struct {
	Code ErrorCode
	Op   string // backend operation, e.g. "stat", "open", "list"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (path: " + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying backend error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on the code of sentinel errors below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Path == "" && t.Err == nil && t.Code == e.Code
}

// Sentinel errors for errors.Is comparisons.
var (
	ErrNotFound        = &Error{Code: ErrCodeNotFound}
	ErrAuthRequired    = &Error{Code: ErrCodeAuthRequired}
	ErrIO              = &Error{Code: ErrCodeIO}
	ErrInvalidLocation = &Error{Code: ErrCodeInvalidLocation}
)

// NewError wraps err with a code, an operation name and a path.
func NewError(code ErrorCode, op, path string, err error) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: err}
}

// CodeOf returns the code carried by err. Errors that did not come from a
// backend are reported as ErrCodeIO.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeIO
}

// IsNotFound reports whether err means the target does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthRequired reports whether err means credentials were missing or rejected.
func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}
