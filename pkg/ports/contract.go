package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	account := "contract-test-" + time.Now().Format("20060102150405") + ".near"

	t.Run("Save and Load", func(t *testing.T) {
		rec := domain.NewStateRecord(account, "counter", domain.CompactBinary, []byte{0x2a, 0, 0, 0})

		err := store.Save(ctx, account, rec)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, account)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.Account, loaded.Account)
		assert.Equal(t, rec.Contract, loaded.Contract)
		assert.Equal(t, rec.Codec, loaded.Codec)
		assert.Equal(t, rec.Data, loaded.Data)
		assert.Equal(t, rec.Version, loaded.Version)
	})

	t.Run("Overwrite", func(t *testing.T) {
		first := domain.NewStateRecord(account, "counter", domain.StructuredText, []byte(`{"value":1}`))
		require.NoError(t, store.Save(ctx, account, first))
		second := first.Next([]byte(`{"value":2}`))
		require.NoError(t, store.Save(ctx, account, second))

		loaded, err := store.Load(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, `{"value":2}`, string(loaded.Data))
		assert.Equal(t, uint64(2), loaded.Version)
	})

	t.Run("Loaded record is isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, account, domain.NewStateRecord(account, "counter", domain.CompactBinary, []byte{1})))

		loaded, err := store.Load(ctx, account)
		require.NoError(t, err)
		loaded.Data[0] = 9

		again, err := store.Load(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, again.Data)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+account)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, account, domain.NewStateRecord(account, "counter", domain.CompactBinary, nil))
		require.NoError(t, err)

		err = store.Delete(ctx, account)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, account)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := "alice-" + account
		id2 := "bob-" + account
		_ = store.Save(ctx, id1, domain.NewStateRecord(id1, "counter", domain.CompactBinary, nil))
		_ = store.Save(ctx, id2, domain.NewStateRecord(id2, "counter", domain.CompactBinary, nil))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		accounts, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, accounts, id1)
		assert.Contains(t, accounts, id2)
	})
}
