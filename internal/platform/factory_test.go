package platform_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akavel/dodo/internal/platform"
	"github.com/akavel/dodo/pkg/adapters/memory"
	"github.com/akavel/dodo/pkg/core"
)

func closeBridge(t *testing.T, b *platform.Bridge) {
	t.Helper()
	t.Cleanup(func() { assert.NoError(t, b.Close(context.Background())) })
}

func roundTrip(t *testing.T, b *platform.Bridge) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, <-b.Save(ctx, core.Document{"count": 3}))
	res := <-b.Load(ctx)
	require.NoError(t, res.Err)
	assert.Equal(t, "3", fmt.Sprint(res.Document["count"]))
	assert.True(t, res.Document.Has(core.SchemaField))
}

func TestNew_FS(t *testing.T) {
	dir := t.TempDir()
	b, err := platform.New(dir)
	require.NoError(t, err)
	closeBridge(t, b)

	roundTrip(t, b)
	assert.FileExists(t, filepath.Join(dir, "dodo-storage.json"))
}

func TestNew_FSYAML(t *testing.T) {
	dir := t.TempDir()
	b, err := platform.New(dir, platform.WithFormat("yaml"), platform.WithNamespace("state"))
	require.NoError(t, err)
	closeBridge(t, b)

	roundTrip(t, b)
	assert.FileExists(t, filepath.Join(dir, "state.yaml"))
}

func TestNew_SQLite(t *testing.T) {
	dir := t.TempDir()
	b, err := platform.New(dir, platform.WithAdapter("sqlite"))
	require.NoError(t, err)
	closeBridge(t, b)

	roundTrip(t, b)
	assert.FileExists(t, filepath.Join(dir, platform.DefaultDatabase))
}

func TestNew_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.sqlite")
	b, err := platform.New(path, platform.WithAdapter("sqlite"))
	require.NoError(t, err)
	closeBridge(t, b)

	roundTrip(t, b)
	assert.FileExists(t, path)
}

func TestNew_Memory(t *testing.T) {
	b, err := platform.New("", platform.WithAdapter("memory"))
	require.NoError(t, err)
	closeBridge(t, b)

	roundTrip(t, b)
}

func TestNew_PreservesLargeIntegers(t *testing.T) {
	ctx := context.Background()
	b, err := platform.New("", platform.WithAdapter("memory"))
	require.NoError(t, err)
	closeBridge(t, b)

	require.NoError(t, <-b.Save(ctx, core.Document{"id": int64(9007199254740993)}))
	res := <-b.Load(ctx)
	require.NoError(t, res.Err)
	assert.Equal(t, json.Number("9007199254740993"), res.Document["id"])
}

func TestNew_StrictDisabled(t *testing.T) {
	ctx := context.Background()
	b, err := platform.New("", platform.WithAdapter("memory"), platform.WithStrict(false))
	require.NoError(t, err)
	closeBridge(t, b)

	require.NoError(t, <-b.Save(ctx, core.Document{"count": 2}))
	res := <-b.Load(ctx)
	require.NoError(t, res.Err)
	assert.Equal(t, float64(2), res.Document["count"])
}

func TestNew_InjectedStore(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.SetItem(context.Background(), "custom", []byte(`{"count":5}`)))

	b, err := platform.New("ignored", platform.WithStore(store), platform.WithNamespace("custom"))
	require.NoError(t, err)
	closeBridge(t, b)

	res := <-b.Load(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, core.Document{"count": json.Number("5"), "v1": nil}, res.Document)
}

func TestNew_Migrations(t *testing.T) {
	b, err := platform.New("", platform.WithAdapter("memory"),
		platform.WithMigrations(core.FieldDefault{Field: "v1", Default: nil}, core.FieldDefault{Field: "theme", Default: "light"}))
	require.NoError(t, err)
	closeBridge(t, b)

	res := <-b.Load(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, core.Document{"v1": nil, "theme": "light"}, res.Document)
}

func TestNew_Errors(t *testing.T) {
	_, err := platform.New(t.TempDir(), platform.WithAdapter("s3"))
	assert.ErrorContains(t, err, "unknown adapter")

	_, err = platform.New(t.TempDir(), platform.WithFormat("toml"))
	assert.ErrorContains(t, err, "unknown codec")

	_, err = platform.New(filepath.Join(t.TempDir(), "missing"), platform.WithMustExist(true))
	assert.Error(t, err)
}

func TestNew_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dodo-storage.json"), []byte(`{"count":1}`), 0o644))

	b, err := platform.New(dir, platform.WithReadOnly(true))
	require.NoError(t, err)
	closeBridge(t, b)

	res := <-b.Load(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, json.Number("1"), res.Document["count"])

	err = <-b.Save(context.Background(), core.Document{"count": 2})
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
}

func TestNew_OperationTimeout(t *testing.T) {
	b, err := platform.New("", platform.WithStore(hangingStore{}), platform.WithOperationTimeout(20*time.Millisecond))
	require.NoError(t, err)
	closeBridge(t, b)

	res := <-b.Load(context.Background())
	assert.ErrorIs(t, res.Err, core.ErrStorageUnavailable)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestBridge_Watch(t *testing.T) {
	mem, err := platform.New("", platform.WithAdapter("memory"))
	require.NoError(t, err)
	closeBridge(t, mem)

	_, err = mem.Watch(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	files, err := platform.New(dir)
	require.NoError(t, err)
	closeBridge(t, files)

	events, err := files.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dodo-storage.json"), []byte(`{"count":9}`), 0o644))

	select {
	case e := <-events:
		assert.Equal(t, "dodo-storage", e.Key)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for external write")
	}
}

type hangingStore struct{}

func (hangingStore) SetItem(ctx context.Context, _ string, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hangingStore) GetItem(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
