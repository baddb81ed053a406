package httprange

import (
	"errors"
	"fmt"
)

// MalformedRangeError reports a Range header whose syntax is not recognized.
//
// HTTP Mapping: 416 Range Not Satisfiable (the header is never silently
// ignored or replaced with a different range).
type MalformedRangeError struct {
	// Header is the raw header value as received.
	Header string

	// Spec is the offending range-spec token, empty when the header as a
	// whole is unusable (unit prefix missing, nothing after the prefix).
	Spec string

	// Reason describes what was wrong.
	Reason string
}

// Error implements the error interface.
func (e *MalformedRangeError) Error() string {
	if e.Spec != "" {
		return fmt.Sprintf("malformed range %q: %s", e.Spec, e.Reason)
	}
	return fmt.Sprintf("malformed range header %q: %s", e.Header, e.Reason)
}

// UnsatisfiableRangeError reports a range that is syntactically valid but
// cannot be served: the resolved window is empty or inverted, or several
// windows were requested at once.
//
// HTTP Mapping: 416 Range Not Satisfiable.
type UnsatisfiableRangeError struct {
	// Spec is the range-spec token that failed to resolve.
	Spec string

	// First and Last are the resolved inclusive offsets.
	First int64
	Last  int64

	// Total is the content length the spec was resolved against.
	Total int64

	// Reason is set for failures that are not about a single window,
	// e.g. multipart requests.
	Reason string
}

// Error implements the error interface.
func (e *UnsatisfiableRangeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("range not satisfiable: %s", e.Reason)
	}
	return fmt.Sprintf("range not satisfiable: spec %q first %d last %d length %d",
		e.Spec, e.First, e.Last, e.Total)
}

// ReasonMultipart is the Reason carried by UnsatisfiableRangeError when a
// header asks for more than one range.
const ReasonMultipart = "multipart ranges not supported"

// IsMalformed reports whether err is (or wraps) a *MalformedRangeError.
func IsMalformed(err error) bool {
	var target *MalformedRangeError
	return errors.As(err, &target)
}

// IsUnsatisfiable reports whether err is (or wraps) an *UnsatisfiableRangeError.
func IsUnsatisfiable(err error) bool {
	var target *UnsatisfiableRangeError
	return errors.As(err, &target)
}

// IsRangeError reports whether err is any range rejection, i.e. a failure
// that should be answered with 416.
func IsRangeError(err error) bool {
	return IsMalformed(err) || IsUnsatisfiable(err)
}
