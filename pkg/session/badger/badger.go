// Package badger stores sessions in BadgerDB. Entries carry a TTL equal to
// the session lifetime so expired sessions disappear without a sweeper.
// Records are sealed with the session secret before they are written.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/session"
)

const (
	storeName     = "badger"
	prefixSession = "sess:"

	gcInterval     = 10 * time.Minute
	gcDiscardRatio = 0.5
)

// Config configures a Store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the database in memory; used by tests.
	InMemory bool

	// Secret seals records at rest.
	Secret string
}

// Store is a session.Store backed by BadgerDB.
type Store struct {
	db      *badgerdb.DB
	sealer  *session.Sealer
	metrics session.StoreMetrics

	stop chan struct{}
	done chan struct{}
}

// Open opens (or creates) the database and starts value-log GC.
func Open(cfg Config, metrics session.StoreMetrics) (*Store, error) {
	sealer, err := session.NewSealer(cfg.Secret)
	if err != nil {
		return nil, err
	}

	opts := badgerdb.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	s := &Store{
		db:      db,
		sealer:  sealer,
		metrics: metrics,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.runGC(cfg.InMemory)
	return s, nil
}

// keySession generates a key for a session record: "sess:<id>"
func keySession(id string) []byte {
	return []byte(prefixSession + id)
}

func (s *Store) Get(ctx context.Context, id string) (sess *session.Session, err error) {
	start := time.Now()
	defer func() {
		session.ObserveOperation(s.metrics, storeName, "get", start, err)
		session.RecordLookup(s.metrics, storeName, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keySession(id))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return session.ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			decoded, err := s.decode(id, val)
			if err != nil {
				return err
			}
			sess = decoded
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if sess.Expired(time.Now()) {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func (s *Store) Save(ctx context.Context, sess *session.Session) (err error) {
	start := time.Now()
	defer func() { session.ObserveOperation(s.metrics, storeName, "save", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, sess.ID)
	}

	data, err := s.encode(sess)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry(keySession(sess.ID), data).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { session.ObserveOperation(s.metrics, storeName, "delete", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(keySession(id))
	})
}

// Healthcheck verifies the database can serve a read transaction.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close stops GC and closes the database.
func (s *Store) Close() error {
	select {
	case <-s.stop:
		return nil
	default:
	}
	close(s.stop)
	<-s.done
	return s.db.Close()
}

func (s *Store) encode(sess *session.Session) ([]byte, error) {
	plain, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return s.sealer.Seal(plain, []byte(sess.ID))
}

func (s *Store) decode(id string, data []byte) (*session.Session, error) {
	plain, err := s.sealer.Open(data, []byte(id))
	if err != nil {
		return nil, err
	}
	var sess session.Session
	if err := json.Unmarshal(plain, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *Store) runGC(inMemory bool) {
	defer close(s.done)
	if inMemory {
		<-s.stop
		return
	}

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for {
				// RunValueLogGC returns nil while it keeps finding files worth
				// rewriting.
				if err := s.db.RunValueLogGC(gcDiscardRatio); err != nil {
					if !errors.Is(err, badgerdb.ErrNoRewrite) {
						logger.Warn("Session value log GC failed", logger.Err(err))
					}
					break
				}
			}
		}
	}
}
