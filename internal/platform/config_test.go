package platform

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	for _, key := range []string{"DODO_ADAPTER", "DODO_PATH", "DODO_NAMESPACE", "DODO_FORMAT", "DODO_TIMEOUT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "fs", cfg.Adapter)
	assert.Equal(t, ".", cfg.Path)
	assert.Equal(t, "dodo-storage", cfg.Namespace)
	assert.Equal(t, "json", cfg.Format)
	assert.Zero(t, cfg.Timeout)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("DODO_ADAPTER", "sqlite")
	t.Setenv("DODO_PATH", "/var/lib/dodo")
	t.Setenv("DODO_NAMESPACE", "prefs")
	t.Setenv("DODO_FORMAT", "yaml")
	t.Setenv("DODO_TIMEOUT", "3s")

	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, EnvConfig{
		Adapter:   "sqlite",
		Path:      "/var/lib/dodo",
		Namespace: "prefs",
		Format:    "yaml",
		Timeout:   3 * time.Second,
	}, cfg)

	o := buildOptions(cfg.Options())
	assert.Equal(t, "sqlite", o.adapter)
	assert.Equal(t, "prefs", o.namespace)
	assert.Equal(t, "yaml", o.format)
	assert.Equal(t, 3*time.Second, o.timeout)
}

func TestLoadEnv_InvalidTimeout(t *testing.T) {
	t.Setenv("DODO_TIMEOUT", "soon")

	_, err := LoadEnv()
	assert.ErrorContains(t, err, "parse env")
}
