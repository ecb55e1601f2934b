package authz

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/trustcore/internal/http/errors"
	"github.com/dropDatabas3/trustcore/internal/http/middlewares"
	"github.com/dropDatabas3/trustcore/internal/principal"
)

// Guards construye middlewares de autorización. Deben montarse después de
// middlewares.Authenticate.
//
// Unsecured lista paths que no exigen autenticación: exactos ("/healthz") o
// prefijos terminados en "/**" ("/public/**"). Sólo RequireAuthenticated los
// respeta; los guards de permisos se evalúan siempre.
// Con PBACEnabled=false los guards de permisos sólo exigen autenticación.
type Guards struct {
	PBACEnabled bool
	Unsecured   []string
}

func NewGuards(pbacEnabled bool, unsecured []string) *Guards {
	return &Guards{PBACEnabled: pbacEnabled, Unsecured: unsecured}
}

// IsUnsecured reporta si path está excluido de RequireAuthenticated.
func (g *Guards) IsUnsecured(path string) bool {
	for _, u := range g.Unsecured {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(u, "/**"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == u {
			return true
		}
	}
	return false
}

// RequireAuthenticated responde 401 a requests anónimos.
func (g *Guards) RequireAuthenticated() middlewares.Middleware {
	return g.guard("", nil)
}

// RequirePermission: 401 si anónimo, 403 si no tiene code.
func (g *Guards) RequirePermission(code string) middlewares.Middleware {
	return g.guard(code, func(ctx context.Context, p *principal.Principal) bool {
		return HasPermission(ctx, p, code)
	})
}

func (g *Guards) RequireAllPermissions(codes ...string) middlewares.Middleware {
	return g.guard(strings.Join(codes, ","), func(ctx context.Context, p *principal.Principal) bool {
		return HasAllPermissions(ctx, p, codes...)
	})
}

func (g *Guards) RequireAnyPermissions(codes ...string) middlewares.Middleware {
	return g.guard(strings.Join(codes, "|"), func(ctx context.Context, p *principal.Principal) bool {
		return HasAnyPermissions(ctx, p, codes...)
	})
}

func (g *Guards) guard(detail string, allow func(context.Context, *principal.Principal) bool) middlewares.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allow == nil && g.IsUnsecured(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			p := middlewares.CurrentPrincipal(r.Context())
			if p == nil {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			if allow != nil && g.PBACEnabled && !allow(r.Context(), p) {
				errors.WriteError(w, errors.ErrForbidden.WithDetail(detail))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
