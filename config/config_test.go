package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":6835", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, SessionBackendDatabase, cfg.Session.Backend)
	assert.Equal(t, 600000, cfg.Auth.PBKDF2Iterations)
	assert.True(t, cfg.Auth.FirstUserAdmin)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, time.Duration(0), cfg.Session.TTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
database:
  driver: postgres
  dsn: "postgres://blog@localhost/blog"
session:
  secret: from-file
  ttl: 2h
auth:
  admin_emails:
    - boss@x.com
`), 0o600))

	t.Setenv("BLOG_SESSION_SECRET", "from-env")
	t.Setenv("BLOG_RATE_LIMIT_REQUESTS_PER_MINUTE", "7")
	t.Setenv("BLOG_SESSION_PREVIOUS_SECRETS", "old-1, old-2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 7, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, []string{"old-1", "old-2"}, cfg.Session.PreviousSecrets)
	assert.True(t, cfg.IsAdminEmail("boss@x.com"))
	assert.False(t, cfg.IsAdminEmail("Boss@x.com"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Database.Driver = "oracle"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Session.Backend = "memcached"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Auth.PBKDF2Iterations = 0
	assert.Error(t, bad.Validate())
}

func TestEnsureSessionSecret(t *testing.T) {
	var cfg Config
	assert.Error(t, cfg.EnsureSessionSecret())

	cfg.Debug = true
	require.NoError(t, cfg.EnsureSessionSecret())
	assert.Len(t, cfg.Session.Secret, 64)

	cfg.Session.Secret = "fixed"
	require.NoError(t, cfg.EnsureSessionSecret())
	assert.Equal(t, "fixed", cfg.Session.Secret)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, splitList([]string{"a@x.com, b@x.com"}))
	assert.Nil(t, splitList([]string{" "}))
}
