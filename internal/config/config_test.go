package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, 168*time.Hour, c.JWT.TTL)
	require.Equal(t, 6, c.MFA.TOTP.Digits)
	require.Equal(t, uint(30), c.MFA.TOTP.Period)
	require.Equal(t, uint(2), c.MFA.TOTP.Skew)
	require.True(t, c.Auth.PBACEnabled)
	require.Equal(t, "legacy-zero-iv", c.Security.Cipher.Mode)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	p := writeYAML(t, `
app:
  env: prod
jwt:
  secret: "`+testSecret+`"
  ttl: 1h
auth:
  pbac_enabled: false
  unsecured_paths: ["/healthz", "/public/**"]
mfa:
  totp:
    algorithm: SHA512
    issuer: Acme
  encrypt_secrets: false
rate:
  login:
    limit: 3
    window: 30s
storage:
  users:
    - id: u-1
      username: alice
      permissions: [users.read]
`)
	c, err := Load(p)
	require.NoError(t, err)
	require.True(t, c.IsProd())
	require.Equal(t, time.Hour, c.JWT.TTL)
	require.False(t, c.Auth.PBACEnabled)
	require.Equal(t, []string{"/healthz", "/public/**"}, c.Auth.UnsecuredPaths)
	require.Equal(t, "SHA512", c.MFA.TOTP.Algorithm)
	require.Equal(t, 6, c.MFA.TOTP.Digits, "fields absent from yaml keep their default")
	require.Equal(t, 3, c.Rate.Login.Limit)
	require.Equal(t, 30*time.Second, c.Rate.Login.Window)
	require.Len(t, c.Storage.Users, 1)
	require.NoError(t, c.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "plain-"+testSecret)
	t.Setenv("TRUSTCORE_JWT_SECRET", "prefixed-"+testSecret)
	t.Setenv("STORAGE_DRIVER", "POSTGRES")
	t.Setenv("STORAGE_DSN", "postgres://localhost/trustcore")
	t.Setenv("AUTH_UNSECURED_PATHS", "/a, /b ,")
	t.Setenv("MFA_SKEW", "1")
	t.Setenv("CIPHER_KEY", "k")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prefixed-"+testSecret, c.JWT.Secret)
	require.Equal(t, "postgres", c.Storage.Driver)
	require.Equal(t, []string{"/a", "/b"}, c.Auth.UnsecuredPaths)
	require.Equal(t, uint(1), c.MFA.TOTP.Skew)
	require.NoError(t, c.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_ReportsEverything(t *testing.T) {
	c := Default()
	c.JWT.Secret = "short"
	c.MFA.TOTP.Digits = 4
	c.Security.Cipher.Mode = "ecb"
	c.Storage.Driver = "postgres"
	c.Cache.Driver = "memcached"
	c.Storage.Users = []UserSeed{{ID: "1", Username: "a"}, {ID: "2", Username: "a"}}

	err := c.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"jwt.secret",
		"mfa.totp",
		"security.cipher.mode",
		"security.cipher.key",
		"storage.dsn",
		"cache.driver",
		"duplicate username",
	} {
		require.True(t, strings.Contains(msg, want), "missing %q in %s", want, msg)
	}
}
