// Package config carga la configuración: defaults, luego YAML (opcional) y por último
// variables de entorno. Cada variable se busca primero con prefijo TRUSTCORE_ y después
// sin prefijo (JWT_SECRET, STORAGE_DSN, ...).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/trustcore/internal/cache"
	"github.com/dropDatabas3/trustcore/internal/rate"
	"github.com/dropDatabas3/trustcore/internal/security/cipher"
	"github.com/dropDatabas3/trustcore/internal/security/password"
	"github.com/dropDatabas3/trustcore/internal/security/totp"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TRUSTCORE_"

type Config struct {
	App struct {
		Env      string `yaml:"env"` // dev | staging | prod
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		MetricsEnabled  bool          `yaml:"metrics_enabled"`
	} `yaml:"server"`

	JWT struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
		Issuer string        `yaml:"issuer"`
	} `yaml:"jwt"`

	Auth struct {
		Scheme         string   `yaml:"scheme"`
		UnsecuredPaths []string `yaml:"unsecured_paths"`
		PBACEnabled    bool     `yaml:"pbac_enabled"`

		PasswordPolicy password.Policy `yaml:"password_policy"`
	} `yaml:"auth"`

	MFA struct {
		TOTP           totp.Settings `yaml:"totp"`
		EncryptSecrets bool          `yaml:"encrypt_secrets"`
	} `yaml:"mfa"`

	Security struct {
		Cipher struct {
			Key  string `yaml:"key"`
			Mode string `yaml:"mode"` // legacy-zero-iv | random-iv
		} `yaml:"cipher"`
	} `yaml:"security"`

	Storage struct {
		Driver   string        `yaml:"driver"` // memory | postgres
		DSN      string        `yaml:"dsn"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
		Postgres struct {
			MaxConns        int32         `yaml:"max_conns"`
			MinConns        int32         `yaml:"min_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		Users []UserSeed `yaml:"users"`
	} `yaml:"storage"`

	Cache cache.Config `yaml:"cache"`

	Rate struct {
		Login rate.Policy `yaml:"login"`
		MFA   rate.Policy `yaml:"mfa"`
	} `yaml:"rate"`
}

// UserSeed es un principal sembrado en el directorio en memoria.
type UserSeed struct {
	ID           string   `yaml:"id"`
	Username     string   `yaml:"username"`
	PasswordHash string   `yaml:"password_hash"`
	Roles        []string `yaml:"roles"`
	Permissions  []string `yaml:"permissions"`
	MFASecret    string   `yaml:"mfa_secret"`
}

// Default retorna la configuración base sobre la que se aplica el YAML.
func Default() *Config {
	c := &Config{}
	c.App.Env = "dev"
	c.App.LogLevel = "info"

	c.Server.Addr = ":8080"
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 15 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.MetricsEnabled = true

	c.JWT.TTL = 168 * time.Hour
	c.JWT.Issuer = "trustcore"

	c.Auth.Scheme = "Bearer"
	c.Auth.UnsecuredPaths = []string{"/healthz", "/metrics", "/v1/auth/login"}
	c.Auth.PBACEnabled = true
	c.Auth.PasswordPolicy = password.Policy{MinLength: 8}

	c.MFA.TOTP = totp.DefaultSettings()
	c.MFA.TOTP.Issuer = "TrustCore"
	c.MFA.EncryptSecrets = true

	c.Security.Cipher.Mode = string(cipher.ModeLegacyZeroIV)

	c.Storage.Driver = "memory"
	c.Storage.CacheTTL = 30 * time.Second

	c.Cache.Driver = "memory"
	c.Cache.Prefix = "trustcore"

	c.Rate.Login = rate.Policy{Limit: 10, Window: time.Minute}
	c.Rate.MFA = rate.Policy{Limit: 10, Window: time.Minute}
	return c
}

// Load aplica path (si no es vacío) sobre Default y luego el entorno.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	return c, nil
}

// IsProd: app.env == prod.
func (c *Config) IsProd() bool { return c.App.Env == "prod" || c.App.Env == "production" }

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v, true
	}
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvBool("SERVER_METRICS_ENABLED"); ok {
		c.Server.MetricsEnabled = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvDur("JWT_TTL"); ok {
		c.JWT.TTL = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_SCHEME"); ok {
		c.Auth.Scheme = v
	}
	if v, ok := getEnvCSV("AUTH_UNSECURED_PATHS"); ok {
		c.Auth.UnsecuredPaths = v
	}
	if v, ok := getEnvBool("AUTH_PBAC_ENABLED"); ok {
		c.Auth.PBACEnabled = v
	}

	// MFA
	if v, ok := getEnvStr("MFA_ISSUER"); ok {
		c.MFA.TOTP.Issuer = v
	}
	if v, ok := getEnvStr("MFA_ALGORITHM"); ok {
		c.MFA.TOTP.Algorithm = v
	}
	if v, ok := getEnvInt("MFA_DIGITS"); ok {
		c.MFA.TOTP.Digits = v
	}
	if v, ok := getEnvInt("MFA_PERIOD"); ok && v > 0 {
		c.MFA.TOTP.Period = uint(v)
	}
	if v, ok := getEnvInt("MFA_SKEW"); ok && v >= 0 {
		c.MFA.TOTP.Skew = uint(v)
	}
	if v, ok := getEnvBool("MFA_ENCRYPT_SECRETS"); ok {
		c.MFA.EncryptSecrets = v
	}

	// SECURITY
	if v, ok := getEnvStr("CIPHER_KEY"); ok {
		c.Security.Cipher.Key = v
	}
	if v, ok := getEnvStr("CIPHER_MODE"); ok {
		c.Security.Cipher.Mode = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.DB = v
	}

	// RATE
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvDur("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}
	if v, ok := getEnvInt("RATE_MFA_LIMIT"); ok {
		c.Rate.MFA.Limit = v
	}
	if v, ok := getEnvDur("RATE_MFA_WINDOW"); ok {
		c.Rate.MFA.Window = v
	}
}

// Validate reporta todos los problemas juntos.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if len(c.JWT.Secret) < 32 {
		add("jwt.secret: must be at least 32 bytes (JWT_SECRET)")
	}
	if c.JWT.TTL <= 0 {
		add("jwt.ttl: must be positive")
	}
	if strings.TrimSpace(c.Auth.Scheme) == "" || strings.ContainsAny(c.Auth.Scheme, " \t") {
		add("auth.scheme: must be a single non-empty word")
	}

	if _, err := totp.New(c.MFA.TOTP); err != nil {
		add("mfa.totp: %v", err)
	}
	if _, err := cipher.ParseMode(c.Security.Cipher.Mode); err != nil {
		add("security.cipher.mode: %v", err)
	}
	if c.MFA.EncryptSecrets && c.Security.Cipher.Key == "" {
		add("security.cipher.key: required when mfa.encrypt_secrets is true (CIPHER_KEY)")
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres", "pg":
		if c.Storage.DSN == "" {
			add("storage.dsn: required for driver %q (STORAGE_DSN)", c.Storage.Driver)
		}
	default:
		add("storage.driver: unknown %q (memory|postgres)", c.Storage.Driver)
	}
	switch c.Cache.Driver {
	case "memory", "redis", "":
	default:
		add("cache.driver: unknown %q (memory|redis)", c.Cache.Driver)
	}

	seen := map[string]bool{}
	for i, u := range c.Storage.Users {
		if u.ID == "" || u.Username == "" {
			add("storage.users[%d]: id and username are required", i)
		}
		if seen[u.Username] {
			add("storage.users[%d]: duplicate username %q", i, u.Username)
		}
		seen[u.Username] = true
	}
	return errors.Join(errs...)
}
