package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/ports"
	"github.com/aretw0/covenant/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.StateRecord
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, account string, rec *domain.StateRecord) error {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.StateRecord)
	}
	s.data[account] = rec.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, account string) (*domain.StateRecord, error) {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.data[account]; ok {
		return rec.Clone(), nil
	}
	return nil, domain.ErrStateNotFound
}

func (s *SlowStore) Delete(ctx context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, account)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_ReadModifyWriteIsSerialized(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	account := "race.near"

	require.NoError(t, manager.Save(ctx, account, domain.NewStateRecord(account, "counter", domain.CompactBinary, []byte{0})))

	var wg sync.WaitGroup
	const writers = 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, account, func(ctx context.Context) error {
				rec, err := store.Load(ctx, account)
				if err != nil {
					return err
				}
				return store.Save(ctx, account, rec.Next([]byte{rec.Data[0] + 1}))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := manager.Load(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, byte(writers), rec.Data[0])
	assert.Equal(t, uint64(writers+1), rec.Version)
}

type countingLocker struct {
	locks   atomic.Int32
	unlocks atomic.Int32
	ttl     time.Duration
	fail    bool
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail {
		return nil, errors.New("lock service down")
	}
	l.ttl = ttl
	l.locks.Add(1)
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))

	err := manager.WithLock(context.Background(), "alice.near", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, int32(1), locker.locks.Load())
	assert.Equal(t, int32(1), locker.unlocks.Load())
	assert.Equal(t, 5*time.Second, locker.ttl)
}

func TestManager_LockFailureSkipsWork(t *testing.T) {
	manager := session.NewManager(&SlowStore{}, session.WithLocker(&countingLocker{fail: true}))

	ran := false
	err := manager.WithLock(context.Background(), "alice.near", func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
	assert.False(t, ran)
}
