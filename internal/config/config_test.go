package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := writeConfig(t, "upstream:\n  base_url: http://api.local\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "http://api.local", cfg.Upstream.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.Email.Enabled())
	assert.Error(t, cfg.ValidateServer())
}

func TestLoadFileValues(t *testing.T) {
	dir := writeConfig(t, `
server_port: "9090"
jwt_secret: segredo
database_url: postgres://localhost/condo
upstream:
  base_url: http://api.local
  timeout: 3s
cors:
  allowed_origins: ["https://app.condominio.local"]
log:
  level: debug
  format: JSON
email:
  smtp_host: smtp.local
  from: portaria@condominio.local
  alert_recipients: [sindico@condominio.local]
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, []string{"https://app.condominio.local"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.True(t, cfg.Email.Enabled())
	assert.NoError(t, cfg.ValidateServer())
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := writeConfig(t, "upstream:\n  base_url: http://api.local\n")
	t.Setenv("CONDO_UPSTREAM_BASE_URL", "http://override.local")
	t.Setenv("CONDO_JWT_SECRET", "env-secret")
	t.Setenv("CONDO_SERVER_PORT", "7070")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://override.local", cfg.Upstream.BaseURL)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
	assert.Equal(t, "7070", cfg.ServerPort)
}

func TestLoadWithoutFileUsesEnv(t *testing.T) {
	t.Setenv("CONDO_UPSTREAM_BASE_URL", "http://env-only.local")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://env-only.local", cfg.Upstream.BaseURL)
}

func TestLoadRequiresUpstream(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
