// Package remotefs defines the read-only view of a remote file share used by
// the HTTP layer: locations, files, backends and the error taxonomy.
//
// A Backend knows how to reach one kind of share (SMB, S3, a local root).
// Connect yields a Session bound to one host and one set of credentials;
// Session.Stat resolves a Location to a File. Files are snapshots: Size and
// ModTime reflect the moment they were obtained.
package remotefs

import (
	"context"
	"io"
	"time"
)

// Kind classifies an entry on a share. It drives icons in listings.
type Kind string

const (
	KindDir       Kind = "dir"
	KindFile      Kind = "file"
	KindShare     Kind = "share"
	KindPrinter   Kind = "printer"
	KindWorkgroup Kind = "workgroup"
	KindPipe      Kind = "pipe"
	KindComm      Kind = "comm"
	KindServer    Kind = "server"
	KindUnknown   Kind = "unknown"
)

// IsContainer reports whether entries of this kind can be listed.
func (k Kind) IsContainer() bool {
	switch k {
	case KindDir, KindShare, KindWorkgroup, KindServer:
		return true
	default:
		return false
	}
}

// File is a handle on one entry of a remote share.
type File interface {
	// Name is the final path component (the share name for shares).
	Name() string

	// Location is where the entry lives. Containers carry a trailing slash.
	Location() Location

	// Size is the content length in bytes. Zero for containers.
	Size() int64

	ModTime() time.Time
	Kind() Kind
	IsDir() bool
	IsFile() bool

	// Open returns a sequential reader positioned at offset 0.
	Open(ctx context.Context) (io.ReadCloser, error)

	// OpenRandom returns a reader that supports seeking.
	OpenRandom(ctx context.Context) (io.ReadSeekCloser, error)

	// Children returns the entries directly inside a container, in no
	// particular order.
	Children(ctx context.Context) ([]File, error)
}

// BoundedReader is implemented by OpenRandom readers that can avoid fetching
// bytes nobody will read. After SetLimit(n) reads stop at offset n.
type BoundedReader interface {
	SetLimit(n int64)
}

// Credentials authenticate a session against a share. An empty Password
// means anonymous (guest) access.
type Credentials struct {
	Domain   string
	User     string
	Password string
}

// IsAnonymous reports whether no password was supplied.
func (c Credentials) IsAnonymous() bool {
	return c.Password == ""
}

// Session is a connection to one host with one set of credentials.
// Sessions are used by a single request and closed when it finishes.
type Session interface {
	// Stat resolves loc. A missing target yields an error matching ErrNotFound.
	Stat(ctx context.Context, loc Location) (File, error)

	Close() error
}

// Backend connects to shares of one scheme.
type Backend interface {
	Scheme() string
	Connect(ctx context.Context, loc Location, creds Credentials) (Session, error)
}

// FileInfo is a serializable snapshot of a File, used by JSON listings and
// the CLI.
type FileInfo struct {
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Kind     Kind      `json:"kind"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
}

// Info snapshots f.
func Info(f File) FileInfo {
	return FileInfo{
		Name:     f.Name(),
		Location: f.Location().String(),
		Kind:     f.Kind(),
		Size:     f.Size(),
		ModTime:  f.ModTime(),
	}
}
