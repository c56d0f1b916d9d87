package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Cache.Kind)
	require.Equal(t, 10*time.Minute, Dur(c.JWKS.CacheTTL))
	require.Equal(t, 5*time.Minute, Dur(c.Pairing.TTL))
	require.False(t, c.IsProd())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	p := writeYAML(t, `
app:
  app_env: staging
jwks:
  url: https://auth.privy.io/api/v1/apps/app-1/jwks.json
  cache_ttl: 2m
claims:
  issuer: privy.io
cache:
  kind: memory
`)
	t.Setenv("JWKS_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")

	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "staging", c.App.Env)
	require.Equal(t, "debug", c.App.LogLevel)
	require.Equal(t, "https://auth.privy.io/api/v1/apps/app-1/jwks.json", c.JWKS.URL)
	require.Equal(t, 30*time.Second, Dur(c.JWKS.CacheTTL))
	require.Equal(t, "privy.io", c.Claims.Issuer)
	require.Equal(t, "redis", c.Cache.Kind)
	require.Equal(t, "redis:6379", c.Cache.Redis.Addr)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]string{
		"relative jwks url":  "jwks:\n  url: /jwks.json\n",
		"bad scheme":         "jwks:\n  url: ftp://x/jwks\n",
		"http in prod":       "app:\n  app_env: prod\njwks:\n  url: http://x/jwks\n",
		"bad duration":       "jwks:\n  cache_ttl: ten minutes\n",
		"negative ttl":       "pairing:\n  ttl: -1m\n",
		"redis without addr": "cache:\n  kind: redis\n",
		"unknown cache":      "cache:\n  kind: memcached\n",
	}
	for name, body := range cases {
		_, err := Load(writeYAML(t, body))
		require.Error(t, err, name)
	}
}

func TestLoad_MissingFileAndBadYAML(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	_, err = Load(writeYAML(t, "server: [unclosed"))
	require.Error(t, err)
}
