package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv pins every variable LoadConfig reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GIN_MODE", "release")
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "MCP_TRANSPORT", "LOG_LEVEL", "REDIS_ADDR", "CORS_ORIGINS",
		"HEALTH_CHECK_INTERVAL", "HN_API_BASE", "HN_SEARCH_URL", "HN_REQUESTS_PER_SECOND", "HN_MAX_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Server.HealthCheckInterval)
	assert.Empty(t, cfg.Server.RedisAddr)
	assert.Equal(t, "https://hacker-news.firebaseio.com/v0", cfg.Upstream.APIBase)
	assert.Equal(t, "https://hn.algolia.com/api/v1/search", cfg.Upstream.SearchURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.RankingTimeout)
	assert.Equal(t, 5*time.Second, cfg.Upstream.ItemTimeout)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfig(t, `
server:
  port: "9000"
  transport: stdio
  redis_addr: redis:6379
upstream:
  item_timeout: 2s
  max_concurrency: 4
`))
	t.Setenv("PORT", "9100")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("HEALTH_CHECK_INTERVAL", "0")
	t.Setenv("HN_REQUESTS_PER_SECOND", "2.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "env overrides file")
	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, "redis:6379", cfg.Server.RedisAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Zero(t, cfg.Server.HealthCheckInterval)
	assert.Equal(t, 2*time.Second, cfg.Upstream.ItemTimeout)
	assert.Equal(t, 10*time.Second, cfg.Upstream.RankingTimeout, "unset fields keep defaults")
	assert.Equal(t, 4, cfg.Upstream.MaxConcurrency)
	assert.Equal(t, 2.5, cfg.Upstream.RequestsPerSecond)
}

func TestLoadConfig_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing explicit file": {"CONFIG_FILE": filepath.Join(os.TempDir(), "does-not-exist-hn-gateway.yaml")},
		"bad transport":         {"MCP_TRANSPORT": "websocket"},
		"bad log level":         {"LOG_LEVEL": "loud"},
		"bad interval":          {"HEALTH_CHECK_INTERVAL": "soon"},
		"bad rps":               {"HN_REQUESTS_PER_SECOND": "fast"},
		"bad concurrency":       {"HN_MAX_CONCURRENCY": "many"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfig(t, "server: [unterminated"))

	_, err := LoadConfig()
	assert.Error(t, err)
}
