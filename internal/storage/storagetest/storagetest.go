// Package storagetest holds the behaviour every storage adapter must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/repository-feed/internal/storage"
)

// Run exercises s against the storage.Storage contract
func Run(t *testing.T, s storage.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", []byte(`{"v":1}`)))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `{"v":1}`, string(got))
	})

	t.Run("set replaces", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", []byte("first")))
		require.NoError(t, s.Set(ctx, "k", []byte("second")))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "gone", []byte("x")))
		require.NoError(t, s.Delete(ctx, "gone"))
		_, err := s.Get(ctx, "gone")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, s.Delete(ctx, "gone"))
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "kept", []byte("x")))
		require.NoError(t, s.Migrate(ctx))
		got, err := s.Get(ctx, "kept")
		require.NoError(t, err)
		assert.Equal(t, "x", string(got))
	})
}
