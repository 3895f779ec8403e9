package blobstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecseg/blobstore"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, store.Put(ctx, "segments/1", []byte("alpha")))
	require.NoError(t, store.Put(ctx, "segments/2", []byte("beta")))
	require.NoError(t, store.Put(ctx, "other/3", []byte("gamma")))

	data, err := store.Get(ctx, "segments/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), data)

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "segments/404")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("list by prefix", func(t *testing.T) {
		names, err := store.List(ctx, "segments/")
		require.NoError(t, err)
		assert.Equal(t, []string{"segments/1", "segments/2"}, names)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "segments/1", []byte("alpha2")))
		data, err := store.Get(ctx, "segments/1")
		require.NoError(t, err)
		assert.Equal(t, []byte("alpha2"), data)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "segments/1"))
		_, err := store.Get(ctx, "segments/1")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)

		// Deleting twice is harmless.
		require.NoError(t, store.Delete(ctx, "segments/1"))
	})
}

func TestMemoryStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	src := []byte("immutable")
	require.NoError(t, store.Put(ctx, "blob", src))
	src[0] = 'X'

	got, err := store.Get(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), got)

	got[0] = 'Y'
	again, err := store.Get(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), again)
}
