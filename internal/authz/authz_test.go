package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/trustcore/internal/http/middlewares"
	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/stretchr/testify/require"
)

var alice = principal.New(principal.Attrs{
	ID:          "u-1",
	Username:    "alice",
	Permissions: []string{"users.read", "users.write"},
})

func TestHasPermission(t *testing.T) {
	ctx := context.Background()
	require.True(t, HasPermission(ctx, alice, "users.read"))
	require.False(t, HasPermission(ctx, alice, "users.delete"))
	require.False(t, HasPermission(ctx, alice, "USERS.READ"))
	require.False(t, HasPermission(ctx, alice, ""))
	require.False(t, HasPermission(ctx, alice, "   "))
	require.False(t, HasPermission(ctx, nil, "users.read"))
}

func TestHasAllPermissions(t *testing.T) {
	ctx := context.Background()
	require.True(t, HasAllPermissions(ctx, alice, "users.read"))
	require.True(t, HasAllPermissions(ctx, alice, "users.read", "users.write"))
	require.False(t, HasAllPermissions(ctx, alice, "users.read", "users.delete"))
	require.False(t, HasAllPermissions(ctx, alice))
	require.False(t, HasAllPermissions(ctx, nil, "users.read"))
}

func TestHasAnyPermissions(t *testing.T) {
	ctx := context.Background()
	require.True(t, HasAnyPermissions(ctx, alice, "users.delete", "users.write"))
	require.False(t, HasAnyPermissions(ctx, alice, "users.delete", "roles.read"))
	require.False(t, HasAnyPermissions(ctx, alice))
	require.False(t, HasAnyPermissions(ctx, nil, "users.read"))
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, CheckPermission(ctx, alice, "users.read"))
	require.ErrorIs(t, CheckPermission(ctx, alice, "users.delete"), ErrPermissionDenied)
	require.ErrorIs(t, CheckPermission(ctx, nil, "users.read"), ErrUnauthenticated)

	require.NoError(t, CheckAllPermissions(ctx, alice, "users.read", "users.write"))
	require.ErrorIs(t, CheckAllPermissions(ctx, alice, "users.read", "x"), ErrPermissionDenied)
	require.ErrorIs(t, CheckAllPermissions(ctx, nil), ErrUnauthenticated)

	require.NoError(t, CheckAnyPermissions(ctx, alice, "x", "users.write"))
	require.ErrorIs(t, CheckAnyPermissions(ctx, alice), ErrPermissionDenied)
	require.ErrorIs(t, CheckAnyPermissions(ctx, nil, "x"), ErrUnauthenticated)
}

func run(t *testing.T, mw middlewares.Middleware, p *principal.Principal, path string) int {
	t.Helper()
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	req := httptest.NewRequest(http.MethodGet, path, nil)
	sc := middlewares.Anonymous()
	if p != nil {
		sc = middlewares.Authenticated(p)
	}
	req = req.WithContext(middlewares.WithSecurityContext(req.Context(), sc))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestGuards_StatusCodes(t *testing.T) {
	g := NewGuards(true, nil)

	require.Equal(t, http.StatusUnauthorized, run(t, g.RequireAuthenticated(), nil, "/v1/users/me"))
	require.Equal(t, http.StatusOK, run(t, g.RequireAuthenticated(), alice, "/v1/users/me"))

	require.Equal(t, http.StatusUnauthorized, run(t, g.RequirePermission("users.read"), nil, "/x"))
	require.Equal(t, http.StatusForbidden, run(t, g.RequirePermission("users.delete"), alice, "/x"))
	require.Equal(t, http.StatusOK, run(t, g.RequirePermission("users.read"), alice, "/x"))

	require.Equal(t, http.StatusForbidden, run(t, g.RequireAllPermissions("users.read", "users.delete"), alice, "/x"))
	require.Equal(t, http.StatusOK, run(t, g.RequireAllPermissions("users.read", "users.write"), alice, "/x"))

	require.Equal(t, http.StatusForbidden, run(t, g.RequireAnyPermissions("a", "b"), alice, "/x"))
	require.Equal(t, http.StatusOK, run(t, g.RequireAnyPermissions("a", "users.write"), alice, "/x"))
}

func TestGuards_PBACDisabled(t *testing.T) {
	g := NewGuards(false, nil)
	require.Equal(t, http.StatusOK, run(t, g.RequirePermission("users.delete"), alice, "/x"))
	require.Equal(t, http.StatusUnauthorized, run(t, g.RequirePermission("users.delete"), nil, "/x"))
}

func TestGuards_Unsecured(t *testing.T) {
	g := NewGuards(true, []string{"/healthz", "/public/**"})

	require.True(t, g.IsUnsecured("/healthz"))
	require.True(t, g.IsUnsecured("/public"))
	require.True(t, g.IsUnsecured("/public/docs/a"))
	require.False(t, g.IsUnsecured("/publicity"))
	require.False(t, g.IsUnsecured("/healthz/extra"))

	require.Equal(t, http.StatusOK, run(t, g.RequireAuthenticated(), nil, "/public/docs"))
	require.Equal(t, http.StatusUnauthorized, run(t, g.RequireAuthenticated(), nil, "/private"))
}

func TestGuards_UnsecuredDoesNotSkipPermissions(t *testing.T) {
	g := NewGuards(true, []string{"/public/**"})

	require.Equal(t, http.StatusUnauthorized, run(t, g.RequirePermission("x"), nil, "/public/docs"))
	require.Equal(t, http.StatusForbidden, run(t, g.RequirePermission("x"), alice, "/public/docs"))
	require.Equal(t, http.StatusOK, run(t, g.RequirePermission("users.read"), alice, "/public/docs"))

	require.Equal(t, http.StatusUnauthorized, run(t, g.RequireAllPermissions("users.read"), nil, "/public/docs"))
	require.Equal(t, http.StatusForbidden, run(t, g.RequireAnyPermissions("a", "b"), alice, "/public/docs"))
}
