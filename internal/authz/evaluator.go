// Package authz evalúa permisos de un principal autenticado y provee los guards HTTP.
//
// La comparación de códigos es exacta (sensible a mayúsculas). Un principal nil o una
// lista vacía nunca conceden nada.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/trustcore/internal/metrics"
	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	"github.com/dropDatabas3/trustcore/internal/principal"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
)

// HasPermission: p no nil, code no vacío y asignado a p.
func HasPermission(ctx context.Context, p *principal.Principal, code string) bool {
	ok := p != nil && strings.TrimSpace(code) != "" && p.Has(code)
	record(ctx, "has_permission", p, []string{code}, ok)
	return ok
}

// HasAllPermissions corta en el primer código faltante.
func HasAllPermissions(ctx context.Context, p *principal.Principal, codes ...string) bool {
	ok := p != nil && len(codes) > 0
	if ok {
		for _, c := range codes {
			if !p.Has(c) {
				ok = false
				break
			}
		}
	}
	record(ctx, "has_all_permissions", p, codes, ok)
	return ok
}

// HasAnyPermissions corta en el primer código presente.
func HasAnyPermissions(ctx context.Context, p *principal.Principal, codes ...string) bool {
	ok := false
	if p != nil {
		for _, c := range codes {
			if p.Has(c) {
				ok = true
				break
			}
		}
	}
	record(ctx, "has_any_permissions", p, codes, ok)
	return ok
}

// CheckPermission es la forma para services: ErrUnauthenticated si p es nil,
// ErrPermissionDenied si no tiene code.
func CheckPermission(ctx context.Context, p *principal.Principal, code string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if !HasPermission(ctx, p, code) {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, code)
	}
	return nil
}

func CheckAllPermissions(ctx context.Context, p *principal.Principal, codes ...string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if !HasAllPermissions(ctx, p, codes...) {
		return fmt.Errorf("%w: all of %v", ErrPermissionDenied, codes)
	}
	return nil
}

func CheckAnyPermissions(ctx context.Context, p *principal.Principal, codes ...string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if !HasAnyPermissions(ctx, p, codes...) {
		return fmt.Errorf("%w: any of %v", ErrPermissionDenied, codes)
	}
	return nil
}

func record(ctx context.Context, op string, p *principal.Principal, codes []string, ok bool) {
	metrics.AuthzDecisions.WithLabelValues(metrics.Decision(ok)).Inc()
	id := ""
	if p != nil {
		id = p.ID()
	}
	logger.From(ctx).Debug("permission evaluated",
		logger.Op(op),
		logger.PrincipalID(id),
		logger.Permissions(codes),
		logger.Decision(ok),
	)
}
