package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "model:42", ModelKey(42))
	assert.Equal(t, "scaler:42", ScalerKey(42))
}

func testStoreRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	ok, err := store.Exists(ctx, ModelKey(1))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(ctx, ModelKey(1))
	assert.ErrorIs(t, err, ErrNotFound)

	payload := []byte(`{"kind":"linear"}`)
	require.NoError(t, store.Put(ctx, ModelKey(1), payload))

	ok, err = store.Exists(ctx, ModelKey(1))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Get(ctx, ModelKey(1))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Overwrites replace the previous payload.
	require.NoError(t, store.Put(ctx, ModelKey(1), []byte("v2")))
	got, err = store.Get(ctx, ModelKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	// The companion key is independent.
	ok, err = store.Exists(ctx, ScalerKey(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	testStoreRoundTrip(t, NewMemoryStore())
}

func TestMemoryStoreCopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	payload := []byte("original")
	require.NoError(t, store.Put(ctx, "k", payload))
	payload[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	testStoreRoundTrip(t, store)
}

func TestFSStoreRequiresDir(t *testing.T) {
	_, err := NewFSStore("")
	require.Error(t, err)
}
