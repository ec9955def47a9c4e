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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://www.cloudflare.com", cfg.Origin)
	assert.Equal(t, "/cdn-cgi/trace", cfg.TracePath)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval())
	assert.Equal(t, "获取节点信息失败", cfg.FallbackText)
	assert.Equal(t, "cfs", cfg.StatusTargetID)
	assert.Equal(t, 1000, cfg.MaxSnapshots)
	assert.Equal(t, 5*time.Second, cfg.HookTimeout())
	assert.False(t, cfg.Toggle)
	assert.Empty(t, cfg.Prefix)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
origin: https://example.org
refresh_interval_seconds: 0
toggle: true
single_flight: true
strict_fields: true
prefix: " | "
fallback_text: 显示失败
page_file: /srv/index.xhtml
tls:
  ca_file: /certs/ca.crt
hook:
  endpoint: http://hooks.local/status
  timeout_seconds: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org", cfg.Origin)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval())
	assert.True(t, cfg.Toggle)
	assert.True(t, cfg.SingleFlight)
	assert.True(t, cfg.StrictFields)
	assert.Equal(t, " | ", cfg.Prefix)
	assert.Equal(t, "显示失败", cfg.FallbackText)
	assert.Equal(t, "/srv/index.xhtml", cfg.PageFile)
	assert.Equal(t, "/certs/ca.crt", cfg.TLS.CAFile)
	assert.Equal(t, "http://hooks.local/status", cfg.Hook.Endpoint)
	assert.Equal(t, 2*time.Second, cfg.HookTimeout())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EDGE_STATUS_ORIGIN", "https://env.example")
	t.Setenv("EDGE_STATUS_LISTEN", ":9090")
	t.Setenv("EDGE_STATUS_MAX_SNAPSHOTS", "5")

	cfg, err := Load(writeConfig(t, "origin: https://file.example\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.Origin)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, 5, cfg.MaxSnapshots)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "origin: [unterminated"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeConfig(t, "refresh_interval_seconds: -1\n"))
	assert.ErrorContains(t, err, "refresh_interval_seconds")

	_, err = Load(writeConfig(t, "timeout_seconds: -3\n"))
	assert.ErrorContains(t, err, "timeout_seconds")
}
