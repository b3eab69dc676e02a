package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/covenant/internal/logging"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to account state.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // one entry per account with a call in flight

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL passed to the distributed locker.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager over the given store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(account) after unlocking.
func (m *Manager) acquire(account string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[account]
	if !exists {
		entry = &lockEntry{}
		m.locks[account] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(account string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[account]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, account)
	}
}

// Load retrieves the state record of an account.
func (m *Manager) Load(ctx context.Context, account string) (*domain.StateRecord, error) {
	var rec *domain.StateRecord
	err := m.WithLock(ctx, account, func(ctx context.Context) error {
		var err error
		rec, err = m.store.Load(ctx, account)
		return err
	})
	return rec, err
}

// Save persists the state record of an account.
func (m *Manager) Save(ctx context.Context, account string, rec *domain.StateRecord) error {
	return m.WithLock(ctx, account, func(ctx context.Context) error {
		return m.store.Save(ctx, account, rec)
	})
}

// Delete removes the state of an account.
func (m *Manager) Delete(ctx context.Context, account string) error {
	return m.WithLock(ctx, account, func(ctx context.Context) error {
		return m.store.Delete(ctx, account)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes fn while holding the lock for the account.
func (m *Manager) WithLock(ctx context.Context, account string, fn func(context.Context) error) error {
	entry := m.acquire(account)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(account)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, account, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"account", account,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
