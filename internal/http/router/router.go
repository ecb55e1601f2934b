// Package router arma el árbol de rutas chi con la cadena de middlewares.
package router

import (
	"net/http"

	"github.com/dropDatabas3/trustcore/internal/authz"
	authctrl "github.com/dropDatabas3/trustcore/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/trustcore/internal/http/controllers/health"
	principalsctrl "github.com/dropDatabas3/trustcore/internal/http/controllers/principals"
	httperrors "github.com/dropDatabas3/trustcore/internal/http/errors"
	mw "github.com/dropDatabas3/trustcore/internal/http/middlewares"
	"github.com/dropDatabas3/trustcore/internal/metrics"
	"github.com/dropDatabas3/trustcore/internal/rate"
	"github.com/go-chi/chi/v5"
)

// Deps contiene lo necesario para armar el router.
type Deps struct {
	Auth       *authctrl.Controllers
	Health     *healthctrl.Controller
	Principals *principalsctrl.Controller
	Metrics    http.Handler // nil = sin /metrics

	Authn  mw.AuthConfig
	Guards *authz.Guards

	LoginLimiter rate.Limiter // nil = sin límite
	MFALimiter   rate.Limiter
}

// New arma el handler. Todas las rutas exigen autenticación salvo las de
// Guards.Unsecured; las que necesitan permisos agregan su guard.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		metrics.Instrument,
		mw.Authenticate(d.Authn),
		d.Guards.RequireAuthenticated(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	r.Get("/healthz", d.Health.Healthz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.With(mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: d.LoginLimiter,
			KeyFunc: mw.IPPathRateKey,
			Route:   "login",
		})).Post("/auth/login", d.Auth.Login.Login)

		r.Get("/users/me", d.Auth.Me.Me)

		r.Route("/mfa/totp", func(r chi.Router) {
			r.Use(mw.WithRateLimit(mw.RateLimitConfig{
				Limiter: d.MFALimiter,
				KeyFunc: mw.PrincipalRateKey,
				Route:   "mfa",
			}))
			r.Post("/enroll", d.Auth.MFA.Enroll)
			r.Post("/confirm", d.Auth.MFA.Confirm)
		})

		if d.Principals != nil {
			r.With(d.Guards.RequirePermission(principalsctrl.PermRead)).
				Get("/principals/{id}", d.Principals.Get)
		}
	})

	return r
}
