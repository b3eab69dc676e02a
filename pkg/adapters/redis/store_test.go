package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/covenant/pkg/adapters/redis"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.StateStore = (*redis.Store)(nil)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunStateStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	account := "ttl.near"

	err := store.Save(ctx, account, domain.NewStateRecord(account, "counter", domain.CompactBinary, []byte{1, 0, 0, 0}))
	require.NoError(t, err)

	accounts, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, accounts, account)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, account)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	// the index is pruned against wall-clock time
	time.Sleep(1200 * time.Millisecond)

	accounts, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := store.Save(ctx, "bob.near", domain.NewStateRecord("bob.near", "counter", domain.StructuredText, []byte(`{"value":1}`)))
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:bob.near"))
	assert.True(t, mr.Exists("custom:app:index"))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob.near"}, list)
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	require.NoError(t, mr.Set(redis.DefaultPrefix+"broken.near", "not json"))

	_, err := store.Load(context.Background(), "broken.near")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStateNotFound)
}
