package config

import (
	"fmt"

	"github.com/marmos91/sharegate/pkg/content"
	"github.com/marmos91/sharegate/pkg/metrics"
	"github.com/marmos91/sharegate/pkg/session"
	"github.com/marmos91/sharegate/pkg/session/badger"
)

// CreateSessionStore opens the configured session store.
func CreateSessionStore(cfg SessionConfig) (session.Store, error) {
	m := metrics.NewSessionMetrics()

	switch cfg.Store {
	case SessionStoreMemory, "":
		return session.NewMemoryStore(m), nil
	case SessionStoreBadger:
		store, err := badger.Open(badger.Config{Path: cfg.Path, Secret: cfg.Secret}, m)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger session store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store type: %q", cfg.Store)
	}
}

// CreateSessionManager opens the session store and binds it to cookies.
func CreateSessionManager(cfg SessionConfig) (*session.Manager, error) {
	store, err := CreateSessionStore(cfg)
	if err != nil {
		return nil, err
	}
	mgr, err := session.NewManager(store, session.ManagerConfig{
		Secret:     cfg.Secret,
		TTL:        cfg.TTL,
		CookieName: cfg.CookieName,
		Secure:     cfg.SecureCookie,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return mgr, nil
}

// ContentOptions converts the content section into streamer options.
func ContentOptions(cfg ContentConfig) content.Options {
	return content.Options{
		ChunkSize: cfg.ChunkSize.Int(),
		RateLimit: cfg.RateLimit.Int64(),
		Mime:      content.NewMimeResolver(cfg.Types, cfg.DefaultType),
		Sniff:     cfg.Sniff,
		Metrics:   metrics.NewStreamMetrics(),
	}
}
