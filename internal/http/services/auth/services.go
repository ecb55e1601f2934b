// Package auth contiene los services de login y MFA TOTP.
package auth

import (
	"errors"
	"time"

	"github.com/dropDatabas3/trustcore/internal/jwt"
	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/dropDatabas3/trustcore/internal/security/totp"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFARequired        = errors.New("mfa code required")
	ErrMFACodeInvalid     = errors.New("mfa code invalid")
	ErrMFANotEnrolled     = errors.New("mfa not enrolled")
	ErrMFAAlreadyEnabled  = errors.New("mfa already enabled")
	ErrStoreFailed        = errors.New("store failed")
	ErrTokenIssueFailed   = errors.New("failed to issue token")
)

// TokenIssuer es lo que el login necesita de jwt.Provider.
type TokenIssuer interface {
	Issue(subject string, extra map[string]any) (jwt.Token, error)
	TTL() time.Duration
}

// Deps contiene las dependencias para crear los services auth.
type Deps struct {
	Directory principal.CredentialChecker
	MFAStore  principal.MFAStore
	Tokens    TokenIssuer
	TOTP      *totp.Engine
	Codes     *CodeVerifier
	Secrets   SecretSealer
	Now       func() time.Time // nil = time.Now
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	Login LoginService
	MFA   MFATOTPService
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Secrets == nil {
		d.Secrets = NewSecretSealer(nil)
	}
	return Services{
		Login: NewLoginService(LoginDeps{
			Credentials: d.Directory,
			Tokens:      d.Tokens,
			Codes:       d.Codes,
			Secrets:     d.Secrets,
		}),
		MFA: NewMFATOTPService(MFADeps{
			Store:   d.MFAStore,
			Engine:  d.TOTP,
			Codes:   d.Codes,
			Secrets: d.Secrets,
			Now:     d.Now,
		}),
	}
}
