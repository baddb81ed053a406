package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// Registry holds the remote filesystem backends (one per scheme) and the
// configured bookmarks. It is safe for concurrent use.
//
// Example usage:
//
//	reg := NewRegistry()
//	reg.RegisterBackend(smb.New(smbCfg))
//	reg.RegisterBackend(s3.New(s3Cfg))
//	reg.AddBookmark("media", "smb://fileserver/media/")
//
//	sess, _ := reg.Connect(ctx, loc, creds)
//	defer sess.Close()
type Registry struct {
	mu        sync.RWMutex
	backends  map[string]remotefs.Backend
	bookmarks []Bookmark
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]remotefs.Backend),
	}
}

// RegisterBackend adds a backend for its scheme.
// Returns an error if the scheme is already served.
func (r *Registry) RegisterBackend(b remotefs.Backend) error {
	if b == nil {
		return fmt.Errorf("cannot register nil backend")
	}
	scheme := strings.ToLower(b.Scheme())
	if scheme == "" {
		return fmt.Errorf("cannot register backend with empty scheme")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[scheme]; exists {
		return fmt.Errorf("backend for scheme %q already registered", scheme)
	}
	r.backends[scheme] = b
	return nil
}

// GetBackend returns the backend serving scheme.
func (r *Registry) GetBackend(scheme string) (remotefs.Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[strings.ToLower(scheme)]
	if !ok {
		return nil, remotefs.NewError(remotefs.ErrCodeInvalidLocation, "connect", scheme+"://",
			fmt.Errorf("no backend for scheme %q", scheme))
	}
	return b, nil
}

// ListSchemes returns the registered schemes, sorted.
func (r *Registry) ListSchemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.backends))
	for s := range r.backends {
		schemes = append(schemes, s)
	}
	slices.Sort(schemes)
	return schemes
}

// CountBackends returns the number of registered backends.
func (r *Registry) CountBackends() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.backends)
}

// Connect opens a session on the backend serving loc.Scheme.
func (r *Registry) Connect(ctx context.Context, loc remotefs.Location, creds remotefs.Credentials) (remotefs.Session, error) {
	b, err := r.GetBackend(loc.Scheme)
	if err != nil {
		return nil, err
	}
	return b.Connect(ctx, loc, creds)
}

// AddBookmark parses target and appends it under name. Bookmarks keep
// their insertion order. Names must be unique.
func (r *Registry) AddBookmark(name, target string) error {
	if name == "" {
		return fmt.Errorf("cannot add bookmark with empty name")
	}
	loc, err := remotefs.ParseLocation(target)
	if err != nil {
		return fmt.Errorf("bookmark %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.ContainsFunc(r.bookmarks, func(b Bookmark) bool { return b.Name == name }) {
		return fmt.Errorf("bookmark %q already exists", name)
	}
	r.bookmarks = append(r.bookmarks, Bookmark{Name: name, Location: loc})
	return nil
}

// ListBookmarks returns a copy of the bookmarks in insertion order.
func (r *Registry) ListBookmarks() []Bookmark {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.bookmarks)
}
