// Package httprange parses HTTP Range request headers into byte windows.
//
// Only the "bytes" unit is understood. A header may name several range-specs
// separated by commas; each is resolved against the content length into an
// inclusive [First, Last] window:
//
//	bytes=0-499     first 500 bytes
//	bytes=-500      last 500 bytes
//	bytes=900-      everything from offset 900
//
// Parsing is pure: the same header and length always give the same result.
// Serving several windows in one response (multipart/byteranges) is left to
// the caller to reject; see RangeSet.IsMultipart.
package httprange

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is the only range unit accepted in a Range header.
const Unit = "bytes"

const unitPrefix = Unit + "="

// ByteRange is an inclusive, zero-based window into content of length Total.
//
// Invariant: 0 <= First <= Last <= Total-1.
type ByteRange struct {
	First int64
	Last  int64
	Total int64
}

// BytesToRead returns the number of bytes covered by the window.
func (r ByteRange) BytesToRead() int64 {
	return r.Last - r.First + 1
}

// ContentRange returns the window as "first-last/total".
func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("%d-%d/%d", r.First, r.Last, r.Total)
}

// HeaderValue returns the value for a Content-Range response header,
// which carries the unit in front of ContentRange.
func (r ByteRange) HeaderValue() string {
	return Unit + " " + r.ContentRange()
}

// String implements fmt.Stringer.
func (r ByteRange) String() string {
	return r.ContentRange()
}

// RangeSet is the ordered, non-empty result of parsing one Range header.
type RangeSet struct {
	Ranges []ByteRange
}

// IsMultipart reports whether the header asked for more than one window.
func (s RangeSet) IsMultipart() bool {
	return len(s.Ranges) > 1
}

// Single returns the only window of the set. It fails with an
// UnsatisfiableRangeError when the set is multipart.
func (s RangeSet) Single() (ByteRange, error) {
	if s.IsMultipart() {
		return ByteRange{}, &UnsatisfiableRangeError{Reason: ReasonMultipart}
	}
	if len(s.Ranges) == 0 {
		return ByteRange{}, &UnsatisfiableRangeError{Reason: "no ranges"}
	}
	return s.Ranges[0], nil
}

// Parse parses a Range header value against a content length of total bytes.
//
// It fails with *MalformedRangeError when the header does not use the bytes
// unit, is empty, or contains a token matching none of "first-last",
// "-suffix" (suffix > 0) and "first-". It fails with *UnsatisfiableRangeError
// when a token resolves to an empty window.
func Parse(header string, total int64) (RangeSet, error) {
	value := strings.TrimSpace(header)
	if !strings.HasPrefix(value, unitPrefix) {
		return RangeSet{}, &MalformedRangeError{Header: header, Reason: "unsupported unit"}
	}

	value = strings.TrimSpace(value[len(unitPrefix):])
	if value == "" {
		return RangeSet{}, &MalformedRangeError{Header: header, Reason: "no range specs"}
	}

	tokens := strings.Split(value, ",")
	specs := make([]spec, 0, len(tokens))
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return RangeSet{}, &MalformedRangeError{
				Header: header,
				Reason: fmt.Sprintf("empty range spec at position %d", i+1),
			}
		}
		sp, err := parseSpec(tok)
		if err != nil {
			return RangeSet{}, &MalformedRangeError{Header: header, Spec: tok, Reason: err.Error()}
		}
		specs = append(specs, sp)
	}

	ranges := make([]ByteRange, 0, len(specs))
	for _, sp := range specs {
		r := sp.resolve(total)
		if r.First > r.Last {
			return RangeSet{}, &UnsatisfiableRangeError{
				Spec:  sp.raw,
				First: r.First,
				Last:  r.Last,
				Total: total,
			}
		}
		ranges = append(ranges, r)
	}

	return RangeSet{Ranges: ranges}, nil
}

type specKind int

const (
	specBounded specKind = iota // first-last
	specSuffix                  // -suffix
	specOpen                    // first-
)

// spec is one syntactically valid range-spec before resolution.
type spec struct {
	raw   string
	kind  specKind
	first int64
	last  int64 // suffix length for specSuffix
}

func parseSpec(tok string) (spec, error) {
	dash := strings.IndexByte(tok, '-')
	if dash < 0 {
		return spec{}, fmt.Errorf("not a valid range spec")
	}
	left, right := tok[:dash], tok[dash+1:]

	switch {
	case left == "" && right == "":
		return spec{}, fmt.Errorf("not a valid range spec")

	case left == "":
		n, err := parseOffset(right)
		if err != nil {
			return spec{}, err
		}
		if n == 0 {
			return spec{}, fmt.Errorf("zero-length suffix is never satisfiable")
		}
		return spec{raw: tok, kind: specSuffix, last: n}, nil

	case right == "":
		n, err := parseOffset(left)
		if err != nil {
			return spec{}, err
		}
		return spec{raw: tok, kind: specOpen, first: n}, nil

	default:
		first, err := parseOffset(left)
		if err != nil {
			return spec{}, err
		}
		last, err := parseOffset(right)
		if err != nil {
			return spec{}, err
		}
		return spec{raw: tok, kind: specBounded, first: first, last: last}, nil
	}
}

// parseOffset accepts a run of ASCII digits only; signs, spaces and other
// characters strconv would tolerate are rejected up front.
func parseOffset(s string) (int64, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("not a valid range spec")
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("offset %s out of range", s)
	}
	return n, nil
}

func (sp spec) resolve(total int64) ByteRange {
	end := total - 1
	r := ByteRange{Total: total, Last: end}

	switch sp.kind {
	case specBounded:
		r.First = sp.first
		r.Last = min(sp.last, end)
	case specSuffix:
		r.First = max(0, total-sp.last)
	case specOpen:
		r.First = sp.first
	}
	return r
}

// UnsatisfiedContentRange returns the Content-Range value sent with a 416
// response for content of length total, e.g. "bytes */1000".
func UnsatisfiedContentRange(total int64) string {
	return fmt.Sprintf("%s */%d", Unit, total)
}
