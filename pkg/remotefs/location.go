package remotefs

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Supported location schemes.
const (
	SchemeSMB   = "smb"
	SchemeS3    = "s3"
	SchemeLocal = "local"
)

// Location is a normalized reference to something on a remote share.
//
// Host is the server (smb), bucket (s3) or configured root name (local).
// Path is slash-separated, always starts with "/" and keeps a trailing "/"
// when the caller addressed a directory explicitly.
type Location struct {
	Scheme string
	Host   string
	Path   string
}

// ParseLocation normalizes a user-supplied target.
//
// UNC paths (\\host\share\dir) and scheme-less network paths
// (//host/share/dir) are treated as SMB. Anything else must carry one of the
// supported schemes.
func ParseLocation(raw string) (Location, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return Location{}, NewError(ErrCodeInvalidLocation, "parse", raw, fmt.Errorf("empty target"))
	}

	switch {
	case strings.HasPrefix(target, `\\`):
		target = SchemeSMB + ":" + strings.ReplaceAll(target, `\`, "/")
	case strings.HasPrefix(target, "//"):
		target = SchemeSMB + ":" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return Location{}, NewError(ErrCodeInvalidLocation, "parse", raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case SchemeSMB, SchemeS3, SchemeLocal:
	case "":
		return Location{}, NewError(ErrCodeInvalidLocation, "parse", raw, fmt.Errorf("missing scheme"))
	default:
		return Location{}, NewError(ErrCodeInvalidLocation, "parse", raw, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return Location{}, NewError(ErrCodeInvalidLocation, "parse", raw, fmt.Errorf("missing host"))
	}

	return Location{
		Scheme: scheme,
		Host:   u.Host,
		Path:   cleanPath(u.Path),
	}, nil
}

// cleanPath resolves dot segments but keeps a trailing slash.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	trailing := strings.HasSuffix(p, "/")
	p = path.Clean("/" + p)
	if trailing && p != "/" {
		p += "/"
	}
	return p
}

// String renders the location as an escaped URL, e.g.
// smb://host/My%20Share/dir/. ParseLocation(l.String()) yields l.
func (l Location) String() string {
	u := url.URL{Scheme: l.Scheme, Host: l.Host, Path: l.Path}
	return u.String()
}

// IsRoot reports whether the location addresses the host itself.
func (l Location) IsRoot() bool {
	return l.Path == "/"
}

// IsDirPath reports whether the location was written with a trailing slash.
func (l Location) IsDirPath() bool {
	return strings.HasSuffix(l.Path, "/")
}

// AsDir returns the location with a trailing slash.
func (l Location) AsDir() Location {
	if !l.IsDirPath() {
		l.Path += "/"
	}
	return l
}

// Segments splits the path into its non-empty components.
func (l Location) Segments() []string {
	trimmed := strings.Trim(l.Path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Base returns the last path component, or the host for a root location.
func (l Location) Base() string {
	segs := l.Segments()
	if len(segs) == 0 {
		return l.Host
	}
	return segs[len(segs)-1]
}

// Child returns the location of a named entry inside this one.
func (l Location) Child(name string, dir bool) Location {
	p := l.AsDir().Path + name
	if dir {
		p += "/"
	}
	return Location{Scheme: l.Scheme, Host: l.Host, Path: p}
}

// EscapePath percent-encodes every byte outside [A-Za-z0-9/]. It is used
// for links to /get/<target> and for file names in Content-Disposition.
func EscapePath(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '/'
}
