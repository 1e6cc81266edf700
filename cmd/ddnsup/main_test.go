package main

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ddnsup/internal/dns"
	"ddnsup/internal/server/api"
	"ddnsup/internal/server/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{
		"DDNS_FORCE", "DDNS_TOKEN", "DDNS_TOKEN_FILE", "DDNS_URL", "DDNS_HOSTNAME",
		"DDNS_LAST_UPDATE_FILE", "DDNS_MAX_INTERVAL", "DDNS_TIMEOUT", "DDNS_LOG_FILE",
		"DDNS_CONFIG", "old_ip_address", "new_ip_address",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

// endpoint serves the update API backed by an in-memory zone
func endpoint(t *testing.T) (*httptest.Server, *dns.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := dns.NewMemory()
	cfg := &config.Config{UpdateToken: "s3cret", TTL: 60}
	srv := httptest.NewServer(api.NewRouter(cfg, mem, zaptest.NewLogger(t)).Handler())
	t.Cleanup(srv.Close)
	return srv, mem
}

func TestRunUpdatesThenSkips(t *testing.T) {
	isolate(t)
	srv, mem := endpoint(t)
	stateFile := filepath.Join(t.TempDir(), "last_update")

	args := []string{
		"-U", srv.URL + "/update", "-H", "home.example.com", "-t", "s3cret",
		"-l", stateFile, "--old-ip-address", "127.0.0.1", "--new-ip-address", "127.0.0.1",
	}

	// first run: no state yet, so the record is stale
	assert.Equal(t, exitOK, run(args))

	rec, ok := mem.Lookup("home.example.com", "A")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", rec.Content)

	first, err := os.ReadFile(stateFile)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	// second run: same address, fresh state
	assert.Equal(t, exitOK, run(args))
	second, err := os.ReadFile(stateFile)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunProviderFailure(t *testing.T) {
	isolate(t)
	srv, mem := endpoint(t)
	stateFile := filepath.Join(t.TempDir(), "last_update")

	code := run([]string{"-U", srv.URL, "-H", "home.example.com", "-t", "wrong", "-l", stateFile, "-f"})
	assert.Equal(t, exitProviderFailure, code)

	_, ok := mem.Lookup("home.example.com", "A")
	assert.False(t, ok)
	_, err := os.Stat(stateFile)
	assert.True(t, os.IsNotExist(err), "state must not be written after a failure")
}

func TestRunStateWriteFailure(t *testing.T) {
	isolate(t)
	srv, _ := endpoint(t)

	// a directory cannot be replaced by the state file
	stateDir := t.TempDir()

	code := run([]string{"-U", srv.URL, "-H", "home.example.com", "-t", "s3cret", "-l", stateDir, "-f"})
	assert.Equal(t, exitStateWriteFailure, code)
}

func TestRunConfigErrors(t *testing.T) {
	isolate(t)

	assert.Equal(t, exitConfigError, run([]string{"-U", "https://ddns.example.com", "-t", "x"}))
	assert.Equal(t, exitConfigError, run([]string{"-U", "https://ddns.example.com", "-H", "home.example.com"}))
	assert.Equal(t, exitConfigError, run([]string{"--no-such-flag"}))
	assert.Equal(t, exitConfigError, run([]string{"-U", "https://ddns.example.com", "-H", "h.example.com", "-t", "x", "-l", "ftp://state"}))
}

func TestRunVersion(t *testing.T) {
	isolate(t)
	assert.Equal(t, exitOK, run([]string{"--version"}))
}
