// Package session keeps one cart container per shopper session.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/storage"
)

type Option func(*Manager)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithStoreOptions adds per-session options to every store the manager creates.
func WithStoreOptions(fn func(sessionID string) []cart.Option) Option {
	return func(m *Manager) { m.storeOpts = fn }
}

// WithSizeObserver is called with the number of live stores after each change.
func WithSizeObserver(fn func(n int)) Option {
	return func(m *Manager) { m.onSize = fn }
}

// Manager holds live stores in a bounded LRU. State is written through on
// every change, so evicting an idle store loses nothing; the next request for
// that session rehydrates it from storage. A store evicted while a request
// still holds it stays the session's live store until it is released.
type Manager struct {
	mu     sync.Mutex
	stores *lru.Cache[string, *entry]
	busy   map[string]*entry

	kv        storage.KV
	key       string
	storeOpts func(sessionID string) []cart.Option
	onSize    func(n int)
	logger    *zap.Logger
}

type entry struct {
	store *cart.Store
	refs  int
}

func NewManager(kv storage.KV, key string, size int, opts ...Option) (*Manager, error) {
	m := &Manager{
		busy:   make(map[string]*entry),
		kv:     kv,
		key:    key,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	// runs under m.mu: the cache only evicts from Add and Purge
	stores, err := lru.NewWithEvict(size, func(id string, e *entry) {
		if e.refs > 0 {
			m.busy[id] = e
			m.logger.Debug("session evicted while in use", zap.String("session_id", id), zap.Int("refs", e.refs))
			return
		}
		m.logger.Debug("session evicted", zap.String("session_id", id))
	})
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	m.stores = stores
	return m, nil
}

// Acquire returns the store for id, creating and rehydrating it on first use.
// The caller must call release once it is done with the store.
func (m *Manager) Acquire(ctx context.Context, id string) (*cart.Store, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.stores.Get(id)
	if !ok {
		if e, ok = m.busy[id]; ok {
			delete(m.busy, id)
		} else {
			s, err := m.newStore(ctx, id)
			if err != nil {
				return nil, nil, err
			}
			e = &entry{store: s}
		}
		m.stores.Add(id, e)
		m.observeSize()
	}

	e.refs++
	var once sync.Once
	release := func() {
		once.Do(func() { m.release(id, e) })
	}
	return e.store, release, nil
}

func (m *Manager) newStore(ctx context.Context, id string) (*cart.Store, error) {
	logger := m.logger.With(zap.String("session_id", id))
	opts := []cart.Option{cart.WithLogger(logger)}
	if m.storeOpts != nil {
		opts = append(opts, m.storeOpts(id)...)
	}

	s, err := cart.NewStore(ctx, cart.NewBridge(storage.Scoped(m.kv, id), m.key), opts...)
	if err != nil {
		logger.Error("rehydrate session", zap.Error(err))
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return s, nil
}

func (m *Manager) release(id string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 && m.busy[id] == e {
		delete(m.busy, id)
		m.observeSize()
	}
}

// Len reports the number of live stores, including evicted ones still in use.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.len()
}

func (m *Manager) len() int {
	return m.stores.Len() + len(m.busy)
}

// Purge drops every idle store.
func (m *Manager) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores.Purge()
	m.observeSize()
}

func (m *Manager) observeSize() {
	if m.onSize != nil {
		m.onSize(m.len())
	}
}

func NewID() string {
	return uuid.NewString()
}

func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
