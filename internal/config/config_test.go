package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("AHA_DOMAIN", "acme.aha.io")
	t.Setenv("AHA_API_KEY", "secret-key")
	t.Setenv("AHA_RATE_LIMIT_DELAY", "0.5")
	t.Setenv("AHA_MAX_RETRIES", "5")
	t.Setenv("AHA_EXTRA_HEADERS", "X-A:1,X-B:two")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "acme.aha.io", cfg.Domain)
	assert.Equal(t, "https://acme.aha.io/api/v1", cfg.APIBaseURL())

	endpoint := cfg.Endpoint("1.2.3")
	assert.Equal(t, 500*time.Millisecond, endpoint.PacingDelay)
	assert.Equal(t, 5, endpoint.MaxRetries)
	assert.Equal(t, 30*time.Second, endpoint.Timeout)
	assert.Equal(t, time.Second, endpoint.BaseDelay)
	assert.Equal(t, 2.0, endpoint.Multiplier)
	assert.Equal(t, 0.2, endpoint.Jitter)
	assert.Equal(t, 30*time.Second, endpoint.MaxDelay)
	assert.Equal(t, "aha-mcp-server/1.2.3", endpoint.UserAgent)
	assert.Equal(t, map[string]string{"X-A": "1", "X-B": "two"}, endpoint.Headers)
	assert.Equal(t, "secret-key", string(endpoint.Credential))
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("AHA_DOMAIN", "acme.aha.io")
	t.Setenv("AHA_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, "/mcp", cfg.HTTPPath)
	assert.Equal(t, "en", cfg.Lang)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Zero(t, cfg.IdempotencyTTL)
	assert.Equal(t, 1000, cfg.IdempotencyMaxEntries)
	assert.Equal(t, 1, cfg.RateLimitBurst)
}

func TestLoadFallsBackToFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aha_config.json"),
		[]byte(`{"aha_domain":"file.aha.io","api_key":"file-key","default_product":"PRJ1"}`), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file.aha.io", cfg.Domain)
	assert.Equal(t, "file-key", string(cfg.APIKey))
	assert.Equal(t, "PRJ1", cfg.DefaultProduct)
}

func TestLoadFileReplacesPartialEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aha_domain: yaml.aha.io\napi_key: yaml-key\n"), 0o600))
	t.Setenv("AHA_CONFIG_FILE", path)
	t.Setenv("AHA_DOMAIN", "env.aha.io")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "yaml.aha.io", cfg.Domain)
	assert.Equal(t, "yaml-key", string(cfg.APIKey))
}

func TestLoadMissingCredentials(t *testing.T) {
	chdirTemp(t)
	_, err := Load()
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoadInvalidFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aha_config.json"), []byte("{not: [valid"), 0o600))
	_, err := Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingCredentials)
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	chdirTemp(t)
	t.Setenv("AHA_DOMAIN", "acme.aha.io")
	t.Setenv("AHA_API_KEY", "k")
	t.Setenv("AHA_TRANSPORT", "grpc")
	_, err := Load()
	require.Error(t, err)
}

func TestBaseURLOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("AHA_BASE_URL", "http://127.0.0.1:9999/api/v1/")
	t.Setenv("AHA_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/api/v1", cfg.APIBaseURL())
}

func TestBaseURLOverrideIgnoresFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aha_config.json"),
		[]byte(`{"aha_domain":"file.aha.io","api_key":"file-key"}`), 0o600))
	t.Setenv("AHA_BASE_URL", "http://127.0.0.1:9999/api/v1")
	t.Setenv("AHA_API_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", string(cfg.APIKey))
	assert.Empty(t, cfg.Domain)
	assert.Equal(t, "http://127.0.0.1:9999/api/v1", cfg.APIBaseURL())
}

func TestDomainWithScheme(t *testing.T) {
	cfg := Config{Domain: "https://acme.aha.io/"}
	assert.Equal(t, "https://acme.aha.io/api/v1", cfg.APIBaseURL())
}
