package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/trustcore/internal/jwt"
	"github.com/dropDatabas3/trustcore/internal/metrics"
	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/dropDatabas3/trustcore/internal/util"
)

// TokenVerifier es lo que Authenticate necesita de jwt.Provider.
type TokenVerifier interface {
	SubjectOf(token string) (string, error)
}

type AuthConfig struct {
	Tokens    TokenVerifier
	Directory principal.Directory
	Scheme    string // default "Bearer"; se compara sin distinguir mayúsculas
}

// Authenticate resuelve el principal del header Authorization y lo deja en un
// SecurityContext nuevo. Nunca corta el request: cualquier problema con el
// credential deja el request como anónimo y los guards deciden 401/403.
func Authenticate(cfg AuthConfig) Middleware {
	scheme := strings.TrimSpace(cfg.Scheme)
	if scheme == "" {
		scheme = "Bearer"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.From(ctx).With(logger.Component("authn"))
			sc := Anonymous()

			raw, ok := ExtractCredential(r.Header.Get("Authorization"), scheme)
			switch {
			case !ok:
				metrics.AuthRequests.WithLabelValues("anonymous").Inc()
			default:
				sub, err := cfg.Tokens.SubjectOf(raw)
				if err != nil {
					outcome := "invalid_token"
					if errors.Is(err, jwt.ErrExpiredToken) {
						outcome = "expired_token"
					}
					metrics.AuthRequests.WithLabelValues(outcome).Inc()
					log.Debug("credential rejected", logger.String("outcome", outcome), logger.Err(err))
					break
				}
				p, err := cfg.Directory.FindByUsername(ctx, sub)
				if err != nil {
					if errors.Is(err, principal.ErrPrincipalNotFound) {
						metrics.AuthRequests.WithLabelValues("unknown_principal").Inc()
						log.Debug("token subject not found", logger.Username(util.MaskString(sub)))
					} else {
						metrics.AuthRequests.WithLabelValues("lookup_error").Inc()
						log.Warn("principal lookup failed", logger.Username(util.MaskString(sub)), logger.Err(err))
					}
					break
				}
				sc = Authenticated(p)
				metrics.AuthRequests.WithLabelValues("authenticated").Inc()
				ctx, _ = logger.Scope(ctx, logger.PrincipalID(p.ID()))
			}

			next.ServeHTTP(w, r.WithContext(WithSecurityContext(ctx, sc)))
		})
	}
}

// ExtractCredential parsea "<scheme> <token>". ok=false si falta el header,
// el scheme no coincide o el token está vacío.
func ExtractCredential(header, scheme string) (string, bool) {
	header = strings.TrimSpace(header)
	i := strings.IndexByte(header, ' ')
	if i <= 0 || !strings.EqualFold(header[:i], scheme) {
		return "", false
	}
	tok := strings.TrimSpace(header[i+1:])
	return tok, tok != ""
}
