package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "dodo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestStore_GetAbsent(t *testing.T) {
	store := openTempStore(t)

	val, err := store.GetItem(context.Background(), "dodo-storage")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestStore_Upsert(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	require.NoError(t, store.SetItem(ctx, "dodo-storage", []byte(`{"v1":1}`)))
	require.NoError(t, store.SetItem(ctx, "dodo-storage", []byte(`{"v1":2}`)))

	val, err := store.GetItem(ctx, "dodo-storage")
	require.NoError(t, err)
	assert.Equal(t, `{"v1":2}`, string(val))

	var rows int
	require.NoError(t, store.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestStore_EmptyValueIsNotAbsent(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	require.NoError(t, store.SetItem(ctx, "k", nil))

	val, err := store.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.NotNil(t, val)
	assert.Empty(t, val)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dodo.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.SetItem(ctx, "k", []byte("persisted")))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	val, err := second.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(val))
}

func TestStore_CanceledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.SetItem(ctx, "k", []byte("x")), context.Canceled)
	_, err := store.GetItem(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_ClosedHandle(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "dodo.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.Error(t, store.SetItem(context.Background(), "k", []byte("x")))
	_, err = store.GetItem(context.Background(), "k")
	assert.Error(t, err)
}

func TestStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.SetItem(ctx, "k", []byte{byte('a' + i)}))
		}()
	}
	wg.Wait()

	val, err := store.GetItem(ctx, "k")
	require.NoError(t, err)
	require.Len(t, val, 1)
	assert.GreaterOrEqual(t, val[0], byte('a'))
	assert.LessOrEqual(t, val[0], byte('j'))
}

func TestStore_State(t *testing.T) {
	store := openTempStore(t)

	state, ok := store.State().(StoreState)
	require.True(t, ok)
	assert.Equal(t, store.path, state.Path)
	assert.Equal(t, "sqlite", store.ComponentType())
}
