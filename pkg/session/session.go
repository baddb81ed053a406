// Package session keeps per-browser state between requests: the share
// credentials a user supplied and the flash messages waiting to be shown.
//
// The browser only holds a signed token naming its session id. Session
// contents stay server-side in a Store.
package session

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// ErrNotFound is returned by Store.Get for unknown or expired ids.
var ErrNotFound = errors.New("session not found")

// Session is the server-side state of one browser.
type Session struct {
	ID          string               `json:"id"`
	Credentials remotefs.Credentials `json:"credentials"`
	Flash       []string             `json:"flash,omitempty"`
	LastTarget  string               `json:"last_target,omitempty"` // prefills the index form
	CreatedAt   time.Time            `json:"created_at"`
	ExpiresAt   time.Time            `json:"expires_at"`
}

// New returns an empty session with a random id expiring after ttl.
func New(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AddFlash queues a message for the next page view.
func (s *Session) AddFlash(msg string) {
	s.Flash = append(s.Flash, msg)
}

// PopFlash returns the queued messages and clears them.
func (s *Session) PopFlash() []string {
	msgs := s.Flash
	s.Flash = nil
	return msgs
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Flash = slices.Clone(s.Flash)
	return &c
}

// Store persists sessions by id. Implementations must drop sessions once
// they expire.
type Store interface {
	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Save creates or replaces the session.
	Save(ctx context.Context, s *Session) error

	// Delete removes the session; deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// StoreMetrics records session store activity. A nil StoreMetrics records
// nothing.
type StoreMetrics interface {
	ObserveOperation(store, op string, duration time.Duration, err error)
	RecordLookup(store string, found bool)
}

// ObserveOperation records one store operation when m is non-nil.
func ObserveOperation(m StoreMetrics, store, op string, start time.Time, err error) {
	if m != nil {
		m.ObserveOperation(store, op, time.Since(start), err)
	}
}

// RecordLookup records a Get result when m is non-nil. ErrNotFound counts
// as a miss; other errors are not lookups.
func RecordLookup(m StoreMetrics, store string, err error) {
	if m == nil {
		return
	}
	switch {
	case err == nil:
		m.RecordLookup(store, true)
	case errors.Is(err, ErrNotFound):
		m.RecordLookup(store, false)
	}
}
