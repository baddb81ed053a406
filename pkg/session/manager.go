package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marmos91/sharegate/internal/logger"
)

// Defaults for ManagerConfig.
const (
	DefaultCookieName = "sharegate_session"
	DefaultTTL        = 24 * time.Hour
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Secret signs session cookies. Must be at least MinSecretLength long.
	Secret string

	// TTL is the sliding lifetime of a session. Default: 24h.
	TTL time.Duration

	// CookieName defaults to DefaultCookieName.
	CookieName string

	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Manager binds sessions to browsers through a signed cookie.
type Manager struct {
	store  Store
	tokens *TokenService
	cfg    ManagerConfig
}

// NewManager returns a Manager storing sessions in store.
func NewManager(store Store, cfg ManagerConfig) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	tokens, err := NewTokenService(cfg.Secret)
	if err != nil {
		return nil, err
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Manager{store: store, tokens: tokens, cfg: cfg}, nil
}

// Load returns the session named by the request cookie, or a fresh session
// when the cookie is missing, invalid or names an expired session. Store
// failures other than ErrNotFound are returned alongside a fresh session so
// the request can still be served anonymously.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return New(m.cfg.TTL), nil
	}

	id, err := m.tokens.Validate(cookie.Value)
	if err != nil {
		logger.DebugCtx(r.Context(), "Discarding session cookie", logger.Err(err))
		return New(m.cfg.TTL), nil
	}

	s, err := m.store.Get(r.Context(), id)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, ErrNotFound):
		return New(m.cfg.TTL), nil
	default:
		return New(m.cfg.TTL), fmt.Errorf("load session: %w", err)
	}
}

// Save extends the session expiry, persists it and (re)issues the cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	s.ExpiresAt = time.Now().Add(m.cfg.TTL)
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	token, err := m.tokens.Issue(s.ID, s.ExpiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy deletes the session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

type contextKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
