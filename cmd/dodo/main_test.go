package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akavel/dodo"
)

type closeRecorder struct {
	closed bool
}

func (c *closeRecorder) Close(ctx context.Context) error {
	c.closed = true
	return nil
}

func TestFail_ClosesBeforeExit(t *testing.T) {
	b := &closeRecorder{}
	var closedAtExit bool
	code := -1
	exit = func(c int) {
		code = c
		closedAtExit = b.closed
	}
	t.Cleanup(func() { exit = os.Exit })

	fail(b, "Failed to save document", errors.New("quota exceeded"))

	assert.Equal(t, 1, code)
	assert.True(t, closedAtExit)
}

func TestDefaultPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".dodo"), 0o755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	t.Setenv("DODO_PATH", "")
	require.NoError(t, os.Unsetenv("DODO_PATH"))

	env := dodo.EnvConfig{Path: "."}
	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(defaultPath(env))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Setenv("DODO_PATH", "/srv/state")
	assert.Equal(t, "/srv/state", defaultPath(dodo.EnvConfig{Path: "/srv/state"}))
}
