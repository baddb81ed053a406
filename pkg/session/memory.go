package session

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/sharegate/internal/logger"
)

const memoryStoreName = "memory"

// MemoryStore keeps sessions in a map. Expired sessions are dropped lazily
// on Get and by Sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	metrics  StoreMetrics
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore. metrics may be nil.
func NewMemoryStore(metrics StoreMetrics) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		metrics:  metrics,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (s *Session, err error) {
	start := time.Now()
	defer func() {
		ObserveOperation(m.metrics, memoryStoreName, "get", start, err)
		RecordLookup(m.metrics, memoryStoreName, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	stored, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if stored.Expired(m.now()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return stored.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) (err error) {
	start := time.Now()
	defer func() { ObserveOperation(m.metrics, memoryStoreName, "save", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { ObserveOperation(m.metrics, memoryStoreName, "delete", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Sweep removes every expired session and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Debug("Expired sessions swept", "removed", n)
			}
		}
	}
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	clear(m.sessions)
	m.mu.Unlock()
	return nil
}
