package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8765, cfg.Port)
	assert.Empty(t, cfg.ArchiveDSN)
	assert.Equal(t, "localhost:8765", cfg.Addr())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHAT_HOST", "0.0.0.0")
	t.Setenv("CHAT_PORT", "9000")
	t.Setenv("ARCHIVE_DSN", "postgres://chat@localhost/chat?sslmode=disable")

	cfg := Load()
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.NotEmpty(t, cfg.ArchiveDSN)
}

func TestLoadIgnoresBadPort(t *testing.T) {
	t.Setenv("CHAT_PORT", "not-a-port")

	cfg := Load()
	assert.Equal(t, 8765, cfg.Port)
}

func TestValidateSSLRequiresCertAndKey(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: 8765, SSL: true}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--cert")

	cfg.CertFile = "server.crt"
	require.Error(t, cfg.Validate())

	cfg.KeyFile = "server.key"
	require.NoError(t, cfg.Validate())
}

func TestValidatePortRange(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: 0}
	require.Error(t, cfg.Validate())

	cfg.Port = 70000
	require.Error(t, cfg.Validate())

	cfg.Port = 8765
	require.NoError(t, cfg.Validate())
}
