package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/dropDatabas3/trustcore/internal/security/totp"
	"go.uber.org/zap"
)

// MFATOTPService maneja el enrolamiento TOTP del principal autenticado.
type MFATOTPService interface {
	// Enroll genera un secreto nuevo y lo guarda sin confirmar.
	Enroll(ctx context.Context, p *principal.Principal) (*totp.Provisioning, error)

	// Confirm verifica el primer código y habilita MFA.
	Confirm(ctx context.Context, p *principal.Principal, code string) error
}

// MFADeps contiene las dependencias del service MFA.
type MFADeps struct {
	Store   principal.MFAStore
	Engine  *totp.Engine
	Codes   *CodeVerifier
	Secrets SecretSealer
	Now     func() time.Time
}

type mfaTOTPService struct {
	deps MFADeps
}

func NewMFATOTPService(deps MFADeps) MFATOTPService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Secrets == nil {
		deps.Secrets = NewSecretSealer(nil)
	}
	return &mfaTOTPService{deps: deps}
}

func (s *mfaTOTPService) Enroll(ctx context.Context, p *principal.Principal) (*totp.Provisioning, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("mfa.totp.enroll"), logger.PrincipalID(p.ID()))

	// Re-enrolar sobre un secreto confirmado deshabilitaría MFA sin segundo factor.
	current, err := s.deps.Store.GetMFA(ctx, p.ID())
	if err != nil {
		return nil, s.storeErr(log, "get mfa", err)
	}
	if p.MFAEnabled() || current.Confirmed() {
		return nil, ErrMFAAlreadyEnabled
	}

	secret, err := s.deps.Engine.GenerateSecret()
	if err != nil {
		return nil, err
	}
	prov, err := s.deps.Engine.Provision(secret, p.Username(), "")
	if err != nil {
		log.Error("provisioning failed", logger.Err(err))
		return nil, err
	}
	sealed, err := s.deps.Secrets.Seal(secret.String())
	if err != nil {
		log.Error("seal secret failed", logger.Err(err))
		return nil, err
	}
	if err := s.deps.Store.PutMFA(ctx, p.ID(), sealed); err != nil {
		return nil, s.storeErr(log, "put mfa", err)
	}

	log.Info("totp enrollment started")
	return prov, nil
}

func (s *mfaTOTPService) Confirm(ctx context.Context, p *principal.Principal, code string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("mfa.totp.confirm"), logger.PrincipalID(p.ID()))

	code = strings.TrimSpace(code)
	if code == "" {
		return ErrMissingFields
	}

	e, err := s.deps.Store.GetMFA(ctx, p.ID())
	if err != nil {
		return s.storeErr(log, "get mfa", err)
	}
	if e == nil {
		return ErrMFANotEnrolled
	}
	if e.Confirmed() {
		return ErrMFAAlreadyEnabled
	}

	secret, err := s.deps.Secrets.Open(e.Secret)
	if err != nil {
		log.Error("mfa secret unreadable", logger.Err(err))
		return err
	}
	if err := s.deps.Codes.Verify(ctx, p.ID(), secret, code); err != nil {
		log.Debug("confirmation code rejected", logger.Err(err))
		return err
	}
	if err := s.deps.Store.ConfirmMFA(ctx, p.ID(), s.deps.Now().UTC()); err != nil {
		return s.storeErr(log, "confirm mfa", err)
	}

	log.Info("totp enabled")
	return nil
}

func (s *mfaTOTPService) storeErr(log *zap.Logger, op string, err error) error {
	if errors.Is(err, principal.ErrPrincipalNotFound) {
		return ErrMFANotEnrolled
	}
	log.Error(op+" failed", logger.Err(err))
	return fmt.Errorf("%w: %w", ErrStoreFailed, err)
}
