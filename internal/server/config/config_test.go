package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ddnsup/internal/dns"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 300, cfg.TTL)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Empty(t, cfg.UpdateToken)
	assert.False(t, cfg.HasBackend())

	_, err = cfg.NewBackend(nil)
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "ddnsupd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: 127.0.0.1:9000
update_token: from-file
ttl: 60
cloudflare:
  api_token: cf-file
  zone: example.com
log:
  level: debug
`), 0o600))

	t.Setenv("DDNS_UPDATE_TOKEN", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, "from-env", cfg.UpdateToken)
	assert.Equal(t, 60, cfg.TTL)
	assert.Equal(t, "cf-file", cfg.Cloudflare.APIToken)
	assert.Equal(t, "example.com", cfg.Cloudflare.Zone)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.HasBackend())
}

func TestLoadConfigInvalid(t *testing.T) {
	clearEnv(t)

	t.Setenv("DDNS_TTL", "-1")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "ttl")

	clearEnv(t)
	t.Setenv("DDNS_LOG_LEVEL", "loud")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "invalid log level")

	clearEnv(t)
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestRoute53Backend(t *testing.T) {
	clearEnv(t)
	t.Setenv("DDNS_HOSTED_ZONE_ID", "Z0123")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "Z0123", cfg.Route53.HostedZoneID)
	assert.Equal(t, "eu-west-1", cfg.Route53.Region)
	assert.True(t, cfg.HasBackend())

	backend, err := cfg.NewBackend(nil)
	require.NoError(t, err)
	assert.IsType(t, &dns.Route53{}, backend)
}

func TestRoute53BackendFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("route53:\n  hosted_zone_id: Z0456\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Z0456", cfg.Route53.HostedZoneID)
}

func TestMultipleBackendsRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("DDNS_HOSTED_ZONE_ID", "Z0123")
	t.Setenv("CLOUDFLARE_API_TOKEN", "cf-token")

	_, err := LoadConfig("")
	assert.ErrorIs(t, err, ErrMultipleBackends)
}
