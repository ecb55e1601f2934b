package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dropDatabas3/trustcore/internal/cache"
	dto "github.com/dropDatabas3/trustcore/internal/http/dto/auth"
	"github.com/dropDatabas3/trustcore/internal/jwt"
	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/dropDatabas3/trustcore/internal/security/cipher"
	"github.com/dropDatabas3/trustcore/internal/security/totp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	mfaSecret = "JBSWY3DPEHPK3PXP"
	jwtSecret = "0123456789abcdef0123456789abcdef"
)

type env struct {
	svc   Services
	dir   *principal.MemoryDirectory
	jwt   *jwt.Provider
	totp  *totp.Engine
	box   *cipher.Box
	clock *time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	now := time.Unix(1700000010, 0)
	e := &env{clock: &now}
	clock := func() time.Time { return *e.clock }

	box, err := cipher.NewBox("cipher-key", cipher.ModeLegacyZeroIV)
	require.NoError(t, err)
	sealed, err := box.Encrypt(mfaSecret)
	require.NoError(t, err)

	pw := func(p string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.MinCost)
		require.NoError(t, err)
		return string(h)
	}
	dir, err := principal.NewMemoryDirectory(
		principal.Record{
			Attrs:        principal.Attrs{ID: "u-1", Username: "alice", Roles: []string{"admin"}, MFASecret: sealed},
			PasswordHash: pw("s3cret"),
		},
		principal.Record{
			Attrs:        principal.Attrs{ID: "u-2", Username: "bob"},
			PasswordHash: pw("hunter2"),
		},
	)
	require.NoError(t, err)

	prov, err := jwt.NewProvider([]byte(jwtSecret), time.Hour, jwt.WithClock(clock))
	require.NoError(t, err)
	engine, err := totp.New(totp.Settings{Issuer: "TrustCore"}, totp.WithClock(clock))
	require.NoError(t, err)

	e.dir, e.jwt, e.totp, e.box = dir, prov, engine, box
	e.svc = NewServices(Deps{
		Directory: dir,
		MFAStore:  dir,
		Tokens:    prov,
		TOTP:      engine,
		Codes:     NewCodeVerifier(engine, cache.NewMemory("test"), clock),
		Secrets:   NewSecretSealer(box),
		Now:       clock,
	})
	return e
}

func TestLogin_PasswordOnly(t *testing.T) {
	e := newEnv(t)
	res, err := e.svc.Login.Login(context.Background(), dto.LoginRequest{Username: " bob ", Password: "hunter2"})
	require.NoError(t, err)
	require.Equal(t, "Bearer", res.TokenType)
	require.Equal(t, int64(3600), res.ExpiresIn)

	sub, err := e.jwt.SubjectOf(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "bob", sub)

	claims, err := e.jwt.Parse(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u-2", claims.Extra["uid"])
}

func TestLogin_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Login.Login(ctx, dto.LoginRequest{Username: "bob"})
	require.ErrorIs(t, err, ErrMissingFields)

	_, err = e.svc.Login.Login(ctx, dto.LoginRequest{Username: "bob", Password: "nope"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = e.svc.Login.Login(ctx, dto.LoginRequest{Username: "mallory", Password: "hunter2"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_MFA(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := dto.LoginRequest{Username: "alice", Password: "s3cret"}

	_, err := e.svc.Login.Login(ctx, req)
	require.ErrorIs(t, err, ErrMFARequired)

	req.Code = "367666"
	_, err = e.svc.Login.Login(ctx, req)
	require.ErrorIs(t, err, ErrMFACodeInvalid)

	req.Code = "367665"
	res, err := e.svc.Login.Login(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)

	// mismo paso: replay
	_, err = e.svc.Login.Login(ctx, req)
	require.ErrorIs(t, err, ErrMFACodeInvalid)

	// paso siguiente dentro de la ventana
	req.Code = "870960"
	_, err = e.svc.Login.Login(ctx, req)
	require.NoError(t, err)
}

func TestLogin_MFASecretUnreadable(t *testing.T) {
	e := newEnv(t)
	other, err := cipher.NewBox("another-key", cipher.ModeLegacyZeroIV)
	require.NoError(t, err)
	svc := NewLoginService(LoginDeps{
		Credentials: e.dir,
		Tokens:      e.jwt,
		Codes:       NewCodeVerifier(e.totp, nil, nil),
		Secrets:     NewSecretSealer(other),
	})
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "s3cret", Code: "367665"})
	require.Error(t, err)
}

func TestMFA_EnrollConfirm(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	bob, err := e.dir.FindByUsername(ctx, "bob")
	require.NoError(t, err)

	err = e.svc.MFA.Confirm(ctx, bob, "123456")
	require.ErrorIs(t, err, ErrMFANotEnrolled)

	prov, err := e.svc.MFA.Enroll(ctx, bob)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(prov.URI, "otpauth://totp/TrustCore:bob?"))
	require.True(t, strings.HasPrefix(prov.QRCode, "data:image/png;base64,"))

	stored, err := e.dir.GetMFA(ctx, bob.ID())
	require.NoError(t, err)
	require.False(t, stored.Confirmed())
	require.NotEqual(t, prov.Secret.String(), stored.Secret)
	plain, err := e.box.Decrypt(stored.Secret)
	require.NoError(t, err)
	require.Equal(t, prov.Secret.String(), plain)

	// sin confirmar, el login sigue sin pedir código
	_, err = e.svc.Login.Login(ctx, dto.LoginRequest{Username: "bob", Password: "hunter2"})
	require.NoError(t, err)

	require.ErrorIs(t, e.svc.MFA.Confirm(ctx, bob, " "), ErrMissingFields)

	code, err := e.totp.CodeAt(prov.Secret.String(), *e.clock)
	require.NoError(t, err)
	require.NoError(t, e.svc.MFA.Confirm(ctx, bob, code))

	bob, err = e.dir.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	require.True(t, bob.MFAEnabled())

	_, err = e.svc.MFA.Enroll(ctx, bob)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
	require.ErrorIs(t, e.svc.MFA.Confirm(ctx, bob, code), ErrMFAAlreadyEnabled)

	_, err = e.svc.Login.Login(ctx, dto.LoginRequest{Username: "bob", Password: "hunter2"})
	require.ErrorIs(t, err, ErrMFARequired)
}

func TestMFA_EnrollRejectsConfirmedEvenWithStalePrincipal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	stale, err := e.dir.FindByUsername(ctx, "bob")
	require.NoError(t, err)

	prov, err := e.svc.MFA.Enroll(ctx, stale)
	require.NoError(t, err)
	code, err := e.totp.CodeAt(prov.Secret.String(), *e.clock)
	require.NoError(t, err)
	require.NoError(t, e.svc.MFA.Confirm(ctx, stale, code))

	_, err = e.svc.MFA.Enroll(ctx, stale)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
}

func TestCodeVerifier_ReplayWindowTTL(t *testing.T) {
	e := newEnv(t)
	v := NewCodeVerifier(e.totp, nil, func() time.Time { return *e.clock })
	require.Equal(t, 150*time.Second, v.replayTTL())
	require.Equal(t, "totp:used:u-1:56666667", replayKey("u-1", 56666667))

	// sin store de anti-replay el mismo código se acepta dos veces
	require.NoError(t, v.Verify(context.Background(), "u-1", mfaSecret, "367665"))
	require.NoError(t, v.Verify(context.Background(), "u-1", mfaSecret, "367665"))
}
