package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/blog.db", cfg.Database.Path)
	assert.Equal(t, 24*30, cfg.Auth.SessionTTLHours)
	assert.Equal(t, 60, cfg.Auth.TokenTTLMinutes)
	assert.False(t, cfg.Auth.SecureCookies)
	assert.Equal(t, "attachments", cfg.Storage.KeyPrefix)
	assert.Empty(t, cfg.Storage.Bucket)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BLOG_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("BLOG_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("BLOG_AUTH_JWTSECRET", "hunter2hunter2")
	t.Setenv("BLOG_AUTH_SESSIONTTLHOURS", "1")
	t.Setenv("BLOG_STORAGE_BUCKET", "blog-media")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, "hunter2hunter2", cfg.Auth.JWTSecret)
	assert.Equal(t, 1, cfg.Auth.SessionTTLHours)
	assert.Equal(t, "blog-media", cfg.Storage.Bucket)
}
