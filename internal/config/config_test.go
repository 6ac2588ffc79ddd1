package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestMustLoadPath(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
http:
  address: ":9090"
cors:
  allowed_origins:
    - "https://watch.example"
rooms:
  comment_history_limit: 50
  chat_history_limit: 25
`)

	cfg := MustLoadPath(path)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, []string{"https://watch.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 50, cfg.Rooms.CommentHistoryLimit)
	assert.Equal(t, 25, cfg.Rooms.ChatHistoryLimit)
}

func TestMustLoadPathDefaults(t *testing.T) {
	path := writeConfig(t, `env: "local"`)

	cfg := MustLoadPath(path)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 200, cfg.Rooms.CommentHistoryLimit)
	assert.Equal(t, 100, cfg.Rooms.ChatHistoryLimit)
}

func TestMustLoadPathMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoadPath(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
