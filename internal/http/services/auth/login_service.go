package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dto "github.com/dropDatabas3/trustcore/internal/http/dto/auth"
	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/dropDatabas3/trustcore/internal/util"
)

// LoginService autentica usuario/password (+TOTP) y emite el access token.
type LoginService interface {
	Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error)
}

// LoginDeps contiene las dependencias para el login service.
type LoginDeps struct {
	Credentials principal.CredentialChecker
	Tokens      TokenIssuer
	Codes       *CodeVerifier
	Secrets     SecretSealer
}

type loginService struct {
	deps LoginDeps
}

// NewLoginService crea un nuevo servicio de login.
func NewLoginService(deps LoginDeps) LoginService {
	if deps.Secrets == nil {
		deps.Secrets = NewSecretSealer(nil)
	}
	return &loginService{deps: deps}
}

func (s *loginService) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	log = log.With(logger.Username(util.MaskString(in.Username)))

	// Paso 1: password
	p, err := s.deps.Credentials.CheckPassword(ctx, in.Username, in.Password)
	if err != nil {
		if errors.Is(err, principal.ErrInvalidCredentials) || errors.Is(err, principal.ErrPrincipalNotFound) {
			log.Debug("invalid credentials")
			return nil, ErrInvalidCredentials
		}
		log.Error("credential check failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	log = log.With(logger.PrincipalID(p.ID()))

	// Paso 2: segundo factor si el principal lo tiene confirmado
	if p.MFAEnabled() {
		code := strings.TrimSpace(in.Code)
		if code == "" {
			log.Debug("mfa code required")
			return nil, ErrMFARequired
		}
		secret, err := s.deps.Secrets.Open(p.MFASecret())
		if err != nil {
			log.Error("mfa secret unreadable", logger.Err(err))
			return nil, err
		}
		if err := s.deps.Codes.Verify(ctx, p.ID(), secret, code); err != nil {
			log.Debug("mfa code rejected", logger.Err(err))
			return nil, err
		}
	}

	// Paso 3: token
	tok, err := s.deps.Tokens.Issue(p.Username(), map[string]any{
		"uid":   p.ID(),
		"roles": p.Roles(),
		"amr":   amr(p.MFAEnabled()),
	})
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrTokenIssueFailed, err)
	}

	log.Info("login succeeded")
	return &dto.LoginResponse{
		AccessToken: tok.Raw,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.deps.Tokens.TTL().Seconds()),
	}, nil
}

func amr(mfa bool) []string {
	if mfa {
		return []string{"pwd", "otp"}
	}
	return []string{"pwd"}
}
