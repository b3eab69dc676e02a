package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/covenant/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, account string, rec *domain.StateRecord) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, account string) (*domain.StateRecord, error) {
	return nil, domain.ErrStateNotFound
}
func (m *MockStore) Delete(ctx context.Context, account string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)       { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		account := fmt.Sprintf("user-%d.near", i)
		_ = mgr.Save(ctx, account, &domain.StateRecord{Account: account})
		_ = mgr.Delete(ctx, account)
	}

	lockCount := len(mgr.locks)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
