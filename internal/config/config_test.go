package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "authd.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_FileAndDefaults(t *testing.T) {
	p := writeConfig(t, `
storage:
  driver: memory
auth:
  signing_key: `+testKey+`
  access_ttl: 5m
limiter:
  max_fails: 3
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, DriverMemory, cfg.Storage.Driver)
	require.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	require.Equal(t, 24*time.Hour, cfg.Auth.RefreshTTL)
	require.True(t, cfg.Auth.RotateRefresh)
	require.Equal(t, 3, cfg.Limiter.MaxFails)
	require.Equal(t, 15*time.Minute, cfg.Limiter.AsLimiterConfig().Window)
	require.Equal(t, ":8443", cfg.Server.GRPCAddr)
	require.False(t, cfg.Server.TLSEnabled())
	require.Equal(t, "authd", cfg.AsLoggerConfig().Service)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTHD_AUTH_SIGNING_KEY", testKey)
	t.Setenv("AUTHD_DB_DSN", "postgres://u:p@localhost:5432/auth?sslmode=disable")
	t.Setenv("AUTHD_DB_MAX_CONNS", "7")
	t.Setenv("AUTHD_AUTH_ROTATE_REFRESH", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.Storage.Driver)
	require.Equal(t, int32(7), cfg.DB.AsPoolConfig().MaxConns)
	require.Equal(t, "postgres://u:p@localhost:5432/auth?sslmode=disable", cfg.DB.AsPoolConfig().DSN)
	require.False(t, cfg.Auth.RotateRefresh)
}

func TestLoad_MissingSigningKey(t *testing.T) {
	p := writeConfig(t, "storage:\n  driver: memory\n")
	_, err := Load(p)
	require.ErrorContains(t, err, "auth.signing_key")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			Storage: Storage{Driver: DriverPostgres},
			DB:      DB{DSN: "postgres://localhost/auth"},
			Auth:    Auth{SigningKey: testKey, AccessTTL: time.Minute, RefreshTTL: time.Hour},
			Limiter: Limiter{MaxFails: 5},
		}
	}
	c := valid()
	require.NoError(t, c.Validate())

	cases := map[string]func(*Config){
		"db.dsn":            func(c *Config) { c.DB.DSN = "" },
		"storage.driver":    func(c *Config) { c.Storage.Driver = "redis" },
		"at least":          func(c *Config) { c.Auth.SigningKey = "short" },
		"must not exceed":   func(c *Config) { c.Auth.AccessTTL = 2 * time.Hour },
		"limiter.max_fails": func(c *Config) { c.Limiter.MaxFails = 0 },
		"set together":      func(c *Config) { c.Server.TLSCert = "cert.pem" },
	}
	for want, mutate := range cases {
		c := valid()
		mutate(&c)
		require.ErrorContains(t, c.Validate(), want)
	}

	m := valid()
	m.Storage.Driver = DriverMemory
	m.DB.DSN = ""
	require.NoError(t, m.Validate())
}
