package port_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akavel/dodo/pkg/adapters/memory"
	"github.com/akavel/dodo/pkg/codec"
	"github.com/akavel/dodo/pkg/core"
	"github.com/akavel/dodo/pkg/port"
)

func newBridge(t *testing.T, store core.Store) *core.Bridge {
	t.Helper()
	bridge, err := core.NewBridge(store, core.Config{Codec: codec.NewJSON(true)})
	require.NoError(t, err)
	return bridge
}

func decodeLines(t *testing.T, out string) map[string]port.Response {
	t.Helper()
	byID := make(map[string]port.Response)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var resp port.Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp), line)
		byID[resp.ID] = resp
	}
	return byID
}

func TestServe_SaveThenLoad(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.SetItem(context.Background(), core.DefaultNamespace, []byte(`{"count":5}`)))

	in := strings.NewReader(`{"id":"a","type":"loadStorage"}` + "\n" +
		`{"id":"b","type":"load","version":1}` + "\n")
	var out bytes.Buffer

	require.NoError(t, port.Serve(context.Background(), newBridge(t, store), in, &out))

	got := decodeLines(t, out.String())
	require.Len(t, got, 2)

	assert.Equal(t, "storageContents", got["a"].Type)
	assert.Equal(t, core.ProtocolV2, got["a"].Version)
	assert.Nil(t, got["a"].Error)
	assert.Equal(t, core.Document{"count": float64(5), "v1": nil}, got["a"].Document)

	assert.Equal(t, "loaded", got["b"].Type)
	assert.Equal(t, core.ProtocolV1, got["b"].Version)
}

func TestServe_SavePersists(t *testing.T) {
	store := memory.NewStore()
	in := strings.NewReader(`{"id":"s","type":"saveStorage","document":{"count":3,"big":9007199254740993}}` + "\n")
	var out bytes.Buffer

	require.NoError(t, port.Serve(context.Background(), newBridge(t, store), in, &out))

	got := decodeLines(t, out.String())
	assert.Equal(t, "storageSaved", got["s"].Type)
	assert.Nil(t, got["s"].Error)
	assert.NotZero(t, got["s"].Seq)

	raw, err := store.GetItem(context.Background(), core.DefaultNamespace)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3,"big":9007199254740993}`, string(raw))
}

func TestServe_MalformedLineContinues(t *testing.T) {
	in := strings.NewReader("{not json\n\n" + `{"id":"ok","type":"loadStorage"}` + "\n")
	var out bytes.Buffer

	require.NoError(t, port.Serve(context.Background(), newBridge(t, memory.NewStore()), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	got := decodeLines(t, out.String())
	bad := got[""]
	assert.Equal(t, port.ErrorType, bad.Type)
	require.NotNil(t, bad.Error)
	assert.Equal(t, core.KindMalformedDocument, bad.Error.Kind)
	assert.Equal(t, "storageContents", got["ok"].Type)
}

func TestServe_ProtocolErrors(t *testing.T) {
	in := strings.NewReader(`{"id":"u","type":"saveStorage","version":1}` + "\n" +
		`{"id":"v","type":"loadStorage","version":9}` + "\n")
	var out bytes.Buffer

	require.NoError(t, port.Serve(context.Background(), newBridge(t, memory.NewStore()), in, &out))

	got := decodeLines(t, out.String())
	for _, id := range []string{"u", "v"} {
		require.NotNil(t, got[id].Error, id)
		assert.Equal(t, port.ErrorType, got[id].Type)
		assert.Equal(t, core.KindProtocol, got[id].Error.Kind)
	}
}

type brokenStore struct{}

func (brokenStore) SetItem(context.Context, string, []byte) error {
	return io.ErrUnexpectedEOF
}

func (brokenStore) GetItem(context.Context, string) ([]byte, error) {
	return nil, io.ErrUnexpectedEOF
}

func TestServe_StorageErrorsAreTyped(t *testing.T) {
	in := strings.NewReader(`{"id":"s","type":"saveStorage","document":{}}` + "\n" +
		`{"id":"l","type":"loadStorage"}` + "\n")
	var out bytes.Buffer

	require.NoError(t, port.Serve(context.Background(), newBridge(t, brokenStore{}), in, &out))

	got := decodeLines(t, out.String())
	assert.Equal(t, "storageSaved", got["s"].Type)
	assert.Equal(t, "storageContents", got["l"].Type)
	for _, id := range []string{"s", "l"} {
		require.NotNil(t, got[id].Error, id)
		assert.Equal(t, core.KindStorageUnavailable, got[id].Error.Kind)
		assert.Nil(t, got[id].Document)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan error, 1)
	go func() {
		done <- port.Serve(ctx, newBridge(t, memory.NewStore()), pr, io.Discard)
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestParseRequest(t *testing.T) {
	req, err := port.ParseRequest([]byte(`{"type":"save","version":1,"document":{"n":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "save", req.Type)
	assert.Equal(t, core.ProtocolV1, req.Version)
	assert.Equal(t, json.Number("1"), req.Document["n"])

	_, err = port.ParseRequest([]byte(`{"type":"save","document":[1]}`))
	assert.ErrorIs(t, err, core.ErrMalformedDocument)

	_, err = port.ParseRequest([]byte(`{"type":"save"} {"type":"load"}`))
	assert.ErrorIs(t, err, core.ErrMalformedDocument)
}
