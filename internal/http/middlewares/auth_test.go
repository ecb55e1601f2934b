package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dropDatabas3/trustcore/internal/jwt"
	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubDirectory struct {
	principal.Directory
	err error
}

func (s stubDirectory) FindByUsername(ctx context.Context, username string) (*principal.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.Directory.FindByUsername(ctx, username)
}

type fixture struct {
	provider *jwt.Provider
	dir      *principal.MemoryDirectory
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	p, err := jwt.NewProvider([]byte("middleware-test-secret-0123456789abcdef"), time.Hour,
		jwt.WithClock(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.provider = p
	f.dir, err = principal.NewMemoryDirectory(principal.Record{
		Attrs: principal.Attrs{ID: "u-1", Username: "alice", Permissions: []string{"users.read"}},
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) token(t *testing.T, sub string) string {
	t.Helper()
	tok, err := f.provider.Issue(sub, nil)
	require.NoError(t, err)
	return tok.Raw
}

// serve ejecuta Authenticate y devuelve el SecurityContext que vio el handler.
func serve(t *testing.T, dir principal.Directory, f *fixture, header string) *SecurityContext {
	t.Helper()
	var seen *SecurityContext
	h := Authenticate(AuthConfig{Tokens: f.provider, Directory: dir})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSecurityContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, "authentication must never short-circuit")
	require.NotNil(t, seen)
	return seen
}

func TestAuthenticate_ValidToken(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "alice")

	for _, h := range []string{"Bearer " + tok, "bearer " + tok, "BEARER   " + tok + "  "} {
		sc := serve(t, f.dir, f, h)
		require.True(t, sc.IsAuthenticated(), h)
		require.Equal(t, "u-1", sc.Principal().ID())
	}
}

func TestAuthenticate_AnonymousCases(t *testing.T) {
	f := newFixture(t)
	valid := f.token(t, "alice")
	ghost := f.token(t, "ghost")

	cases := map[string]string{
		"no header":         "",
		"wrong scheme":      "Basic " + valid,
		"scheme only":       "Bearer",
		"empty token":       "Bearer    ",
		"garbage":           "Bearer not.a.jwt",
		"unknown principal": "Bearer " + ghost,
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			sc := serve(t, f.dir, f, h)
			require.False(t, sc.IsAuthenticated())
			require.Nil(t, sc.Principal())
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "alice")
	f.now = f.now.Add(61 * time.Minute)

	sc := serve(t, f.dir, f, "Bearer "+tok)
	require.False(t, sc.IsAuthenticated())
}

func TestAuthenticate_DirectoryErrorIsAnonymous(t *testing.T) {
	f := newFixture(t)
	dir := stubDirectory{Directory: f.dir, err: errors.New("db down")}
	sc := serve(t, dir, f, "Bearer "+f.token(t, "alice"))
	require.False(t, sc.IsAuthenticated())
}

func TestAuthenticate_CustomScheme(t *testing.T) {
	f := newFixture(t)
	var seen *SecurityContext
	h := Authenticate(AuthConfig{Tokens: f.provider, Directory: f.dir, Scheme: "Token"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { seen = GetSecurityContext(r.Context()) }))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "token "+f.token(t, "alice"))
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, seen.IsAuthenticated())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "alice"))
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.False(t, seen.IsAuthenticated())
}

func TestAuthenticate_ContextIsPerRequest(t *testing.T) {
	f := newFixture(t)
	first := serve(t, f.dir, f, "Bearer "+f.token(t, "alice"))
	second := serve(t, f.dir, f, "")

	require.True(t, first.IsAuthenticated(), "a later anonymous request must not affect an earlier context")
	require.False(t, second.IsAuthenticated())
	require.NotSame(t, first, second)
}

func TestGetSecurityContext_DefaultsToAnonymous(t *testing.T) {
	sc := GetSecurityContext(context.Background())
	require.NotNil(t, sc)
	require.False(t, sc.IsAuthenticated())
	require.Nil(t, CurrentPrincipal(context.Background()))

	var nilSC *SecurityContext
	require.Nil(t, nilSC.Principal())
}

func TestExtractCredential(t *testing.T) {
	tok, ok := ExtractCredential("Bearer abc", "Bearer")
	require.True(t, ok)
	require.Equal(t, "abc", tok)

	_, ok = ExtractCredential("Bearerabc", "Bearer")
	require.False(t, ok)
	_, ok = ExtractCredential(" abc", "Bearer")
	require.False(t, ok)
}

func TestAuthenticate_ScopesLoggerWithPrincipal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer logger.Swap(zap.New(core))()

	f := newFixture(t)
	h := Authenticate(AuthConfig{Tokens: f.provider, Directory: f.dir})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.From(r.Context()).Info("handled")
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "alice"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	handled := logs.FilterMessage("handled").All()
	require.Len(t, handled, 1)
	require.Equal(t, "u-1", handled[0].ContextMap()["principal_id"])
}
