package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/akavel/dodo/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiate(t *testing.T) {
	v, err := core.Negotiate(0)
	require.NoError(t, err)
	assert.Equal(t, core.CurrentProtocol, v)

	v, err = core.Negotiate(core.ProtocolV1)
	require.NoError(t, err)
	assert.Equal(t, core.ProtocolV1, v)

	_, err = core.Negotiate(core.CurrentProtocol + 1)
	assert.ErrorIs(t, err, core.ErrUnsupportedVersion)
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		version core.Version
		name    string
		want    core.Op
	}{
		{core.ProtocolV1, "save", core.OpSave},
		{core.ProtocolV1, "load", core.OpLoad},
		{core.ProtocolV2, "saveStorage", core.OpSave},
		{core.ProtocolV2, "loadStorage", core.OpLoad},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("v%d/%s", tt.version, tt.name), func(t *testing.T) {
			op, err := core.ParseOp(tt.version, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, op)
		})
	}
}

func TestParseOp_NamesDoNotCrossVersions(t *testing.T) {
	_, err := core.ParseOp(core.ProtocolV2, "save")
	assert.ErrorIs(t, err, core.ErrUnknownMessage)

	_, err = core.ParseOp(core.ProtocolV1, "loadStorage")
	assert.ErrorIs(t, err, core.ErrUnknownMessage)

	_, err = core.ParseOp(core.ProtocolV1, "")
	assert.ErrorIs(t, err, core.ErrUnknownMessage)
}

func TestReplyName(t *testing.T) {
	assert.Equal(t, "loaded", core.ProtocolV1.ReplyName(core.OpLoad))
	assert.Equal(t, "saved", core.ProtocolV1.ReplyName(core.OpSave))
	assert.Equal(t, "storageContents", core.ProtocolV2.ReplyName(core.OpLoad))
	assert.Equal(t, "storageSaved", core.ProtocolV2.ReplyName(core.OpSave))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, core.KindNone, core.KindOf(nil))
	assert.Equal(t, core.KindStorageUnavailable, core.KindOf(fmt.Errorf("%w: disk full", core.ErrStorageUnavailable)))
	assert.Equal(t, core.KindMalformedDocument, core.KindOf(fmt.Errorf("wrap: %w", core.ErrMalformedDocument)))
	assert.Equal(t, core.KindProtocol, core.KindOf(core.ErrBridgeClosed))
	assert.Equal(t, core.KindUnknown, core.KindOf(errors.New("boom")))
}
