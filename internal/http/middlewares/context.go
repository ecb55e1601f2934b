package middlewares

import (
	"context"

	"github.com/dropDatabas3/trustcore/internal/principal"
)

type ctxKey string

const (
	ctxSecurityKey  ctxKey = "security"
	ctxRequestIDKey ctxKey = "request_id"
)

// SecurityContext es el resultado de autenticar un request: un principal o anónimo.
// Se crea uno por request y nunca se comparte.
type SecurityContext struct {
	principal *principal.Principal
}

// Anonymous es un SecurityContext sin principal.
func Anonymous() *SecurityContext { return &SecurityContext{} }

// Authenticated crea un SecurityContext para p.
func Authenticated(p *principal.Principal) *SecurityContext {
	return &SecurityContext{principal: p}
}

func (s *SecurityContext) Principal() *principal.Principal {
	if s == nil {
		return nil
	}
	return s.principal
}

func (s *SecurityContext) IsAuthenticated() bool { return s.Principal() != nil }

// WithSecurityContext inyecta sc en el contexto.
func WithSecurityContext(ctx context.Context, sc *SecurityContext) context.Context {
	return context.WithValue(ctx, ctxSecurityKey, sc)
}

// GetSecurityContext nunca retorna nil: sin middleware aplicado el request es anónimo.
func GetSecurityContext(ctx context.Context) *SecurityContext {
	if sc, ok := ctx.Value(ctxSecurityKey).(*SecurityContext); ok && sc != nil {
		return sc
	}
	return Anonymous()
}

// CurrentPrincipal es un atajo para GetSecurityContext(ctx).Principal().
func CurrentPrincipal(ctx context.Context) *principal.Principal {
	return GetSecurityContext(ctx).Principal()
}

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, rid)
}

// GetRequestID retorna "" si WithRequestID no se aplicó.
func GetRequestID(ctx context.Context) string {
	rid, _ := ctx.Value(ctxRequestIDKey).(string)
	return rid
}
