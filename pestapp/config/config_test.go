package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PESTAPP_CONFIG", "")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":18080", c.Server.Addr)
	assert.Equal(t, int64(8<<20), c.Server.MaxMultipartMemory)
	assert.Equal(t, 5*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "tm-my-image-model", c.Model.Path)
	assert.Equal(t, 5, c.Model.TopK)
	assert.Equal(t, "pestapp_session", c.Session.Cookie)
	assert.Equal(t, 24*time.Hour, c.Session.MaxAge)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pestapp.yaml")
	content := `
server:
  addr: ":9000"
  shutdown_timeout: 2s
model:
  path: /srv/models/pests
  top_k: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("PESTAPP_SESSION_COOKIE", "sid")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, 2*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "/srv/models/pests", c.Model.Path)
	assert.Equal(t, 3, c.Model.TopK)
	assert.Equal(t, "sid", c.Session.Cookie)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadNonPositiveTopK(t *testing.T) {
	t.Setenv("PESTAPP_CONFIG", "")
	t.Setenv("PESTAPP_MODEL_TOP_K", "0")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, c.Model.TopK)
}
