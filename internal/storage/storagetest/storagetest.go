// Package storagetest holds the behaviour every storage.KV implementation must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/jiahe-fees/internal/storage"
)

// Run exercises kv against the storage.KV contract. Keys are namespaced by prefix so
// the suite can run against shared servers.
func Run(t *testing.T, kv storage.KV, prefix string) {
	t.Helper()
	ctx := context.Background()
	key := prefix + "payments"

	t.Run("missing key", func(t *testing.T) {
		_, err := kv.Get(ctx, prefix+"never-set")
		require.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, key, []byte(`[{"residentId":"13-5"}]`)))
		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		require.JSONEq(t, `[{"residentId":"13-5"}]`, string(got))
	})

	t.Run("last write wins", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, key, []byte(`[]`)))
		require.NoError(t, kv.Set(ctx, key, []byte(`[1,2]`)))
		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, `[1,2]`, string(got))
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, kv.Remove(ctx, key))
		_, err := kv.Get(ctx, key)
		require.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
		require.NoError(t, kv.Remove(ctx, key), "removing a missing key")
	})

	t.Run("json helpers", func(t *testing.T) {
		type row struct {
			ID string `json:"id"`
		}
		jsonKey := prefix + "users"
		require.NoError(t, storage.WriteJSON(ctx, kv, jsonKey, []row{{ID: "admin-001"}}))
		var rows []row
		require.NoError(t, storage.ReadJSON(ctx, kv, jsonKey, &rows))
		require.Equal(t, []row{{ID: "admin-001"}}, rows)

		require.NoError(t, kv.Set(ctx, jsonKey, []byte(`{not json`)))
		rows = nil
		err := storage.ReadJSON(ctx, kv, jsonKey, &rows)
		require.ErrorIs(t, err, storage.ErrCorrupt)
		require.NoError(t, kv.Remove(ctx, jsonKey))
	})
}
