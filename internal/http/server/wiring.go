package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/trustcore/internal/authz"
	"github.com/dropDatabas3/trustcore/internal/cache"
	"github.com/dropDatabas3/trustcore/internal/config"
	authctrl "github.com/dropDatabas3/trustcore/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/trustcore/internal/http/controllers/health"
	principalsctrl "github.com/dropDatabas3/trustcore/internal/http/controllers/principals"
	mw "github.com/dropDatabas3/trustcore/internal/http/middlewares"
	"github.com/dropDatabas3/trustcore/internal/http/router"
	authsvc "github.com/dropDatabas3/trustcore/internal/http/services/auth"
	healthsvc "github.com/dropDatabas3/trustcore/internal/http/services/health"
	"github.com/dropDatabas3/trustcore/internal/jwt"
	"github.com/dropDatabas3/trustcore/internal/metrics"
	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/dropDatabas3/trustcore/internal/rate"
	"github.com/dropDatabas3/trustcore/internal/security/cipher"
	"github.com/dropDatabas3/trustcore/internal/security/totp"
	"github.com/dropDatabas3/trustcore/internal/store/pg"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// backend es lo que se espera de un directorio de principals persistente.
type backend interface {
	principal.Directory
	principal.CredentialChecker
	principal.MFAStore
}

// App son las piezas armadas a partir de la configuración.
type App struct {
	Handler   http.Handler
	Tokens    *jwt.Provider
	TOTP      *totp.Engine
	Directory backend
	Cache     cache.Client
	Store     *pg.Store // nil con storage memory

	closers []func() error
}

// Close libera cache y pool en orden inverso de creación.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Build valida cfg y arma el handler con todas sus dependencias.
func Build(ctx context.Context, cfg *config.Config) (app *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.L().With(logger.Component("wiring"))

	app = &App{}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	// 1. Cache compartido (anti-replay TOTP y rate limit)
	app.Cache, err = cache.New(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	app.closers = append(app.closers, app.Cache.Close)

	// 2. Directorio de principals
	var dir backend
	switch cfg.Storage.Driver {
	case "postgres", "pg":
		st, err := pg.New(ctx, cfg.Storage.DSN, pg.PoolConfig{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		app.Store = st
		app.closers = append(app.closers, func() error { st.Close(); return nil })
		dir = st
	default:
		mem, err := principal.NewMemoryDirectory(seedRecords(cfg.Storage.Users)...)
		if err != nil {
			return nil, fmt.Errorf("storage.users: %w", err)
		}
		dir = mem
	}
	if cfg.Storage.CacheTTL > 0 {
		dir = principal.NewCachedDirectory(dir, cfg.Storage.CacheTTL)
	}
	app.Directory = dir

	// 3. Tokens, TOTP y cifrado de secretos
	app.Tokens, err = jwt.NewProvider([]byte(cfg.JWT.Secret), cfg.JWT.TTL, jwt.WithIssuer(cfg.JWT.Issuer))
	if err != nil {
		return nil, err
	}
	app.TOTP, err = totp.New(cfg.MFA.TOTP)
	if err != nil {
		return nil, err
	}
	var box *cipher.Box
	if cfg.MFA.EncryptSecrets {
		box, err = cipher.NewBox(cfg.Security.Cipher.Key, cipher.Mode(cfg.Security.Cipher.Mode))
		if err != nil {
			return nil, err
		}
		if box.Mode() == cipher.ModeLegacyZeroIV {
			log.Warn("mfa secrets use the legacy zero-IV cipher mode")
		}
	}

	// 4. Services y controllers
	services := authsvc.NewServices(authsvc.Deps{
		Directory: dir,
		MFAStore:  dir,
		Tokens:    app.Tokens,
		TOTP:      app.TOTP,
		Codes:     authsvc.NewCodeVerifier(app.TOTP, app.Cache, nil),
		Secrets:   authsvc.NewSecretSealer(box),
	})

	checks := map[string]healthsvc.Pinger{"cache": app.Cache}
	if app.Store != nil {
		checks["postgres"] = app.Store
	}

	deps := router.Deps{
		Auth:       authctrl.NewControllers(services),
		Health:     healthctrl.NewController(healthsvc.NewService(checks, 0)),
		Principals: principalsctrl.NewController(dir),
		Authn: mw.AuthConfig{
			Tokens:    app.Tokens,
			Directory: dir,
			Scheme:    cfg.Auth.Scheme,
		},
		Guards: authz.NewGuards(cfg.Auth.PBACEnabled, cfg.Auth.UnsecuredPaths),
	}
	if cfg.Rate.Login.Enabled() {
		deps.LoginLimiter = rate.NewFixedWindow(app.Cache, "rl:login", cfg.Rate.Login)
	}
	if cfg.Rate.MFA.Enabled() {
		deps.MFALimiter = rate.NewFixedWindow(app.Cache, "rl:mfa", cfg.Rate.MFA)
	}

	// 5. Métricas
	if cfg.Server.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		var pool func() *pgxpool.Pool
		if app.Store != nil {
			pool = app.Store.Pool
		}
		deps.Metrics, err = metrics.Register(reg, pool)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	app.Handler = router.New(deps)
	log.Info("wiring ready",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", app.Cache.Driver()),
		logger.Bool("pbac", cfg.Auth.PBACEnabled),
		logger.Bool("encrypt_secrets", cfg.MFA.EncryptSecrets),
	)
	return app, nil
}

// seedRecords: mfa_secret va en su forma almacenada (cifrada si mfa.encrypt_secrets).
func seedRecords(users []config.UserSeed) []principal.Record {
	out := make([]principal.Record, 0, len(users))
	for _, u := range users {
		out = append(out, principal.Record{
			Attrs: principal.Attrs{
				ID:          u.ID,
				Username:    u.Username,
				Roles:       u.Roles,
				Permissions: u.Permissions,
				MFASecret:   u.MFASecret,
			},
			PasswordHash: u.PasswordHash,
		})
	}
	return out
}
