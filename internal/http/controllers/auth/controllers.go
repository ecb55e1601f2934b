// Package auth contiene los controllers de login, perfil y MFA TOTP.
package auth

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/trustcore/internal/http/errors"
	svc "github.com/dropDatabas3/trustcore/internal/http/services/auth"
	"go.uber.org/zap"
)

// Controllers agrupa los controllers del dominio auth.
type Controllers struct {
	Login *LoginController
	Me    *MeController
	MFA   *MFATOTPController
}

func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Login: NewLoginController(s.Login),
		Me:    NewMeController(),
		MFA:   NewMFATOTPController(s.MFA),
	}
}

// handleServiceError traduce errores del service a AppError.
func handleServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	var appErr *httperrors.AppError
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		appErr = httperrors.ErrMissingFields
	case errors.Is(err, svc.ErrInvalidCredentials):
		appErr = httperrors.ErrInvalidCredentials
	case errors.Is(err, svc.ErrMFARequired):
		appErr = httperrors.ErrMFARequired
	case errors.Is(err, svc.ErrMFACodeInvalid):
		appErr = httperrors.ErrMFACodeInvalid
	case errors.Is(err, svc.ErrMFANotEnrolled):
		appErr = httperrors.ErrMFANotEnrolled
	case errors.Is(err, svc.ErrMFAAlreadyEnabled):
		appErr = httperrors.ErrMFAAlreadyEnabled
	case errors.Is(err, svc.ErrStoreFailed):
		log.Error("store unavailable", zap.Error(err))
		appErr = httperrors.ErrServiceUnavailable.WithCause(err)
	default:
		// cifrado, QR o emisión de token
		log.Error("request failed", zap.Error(err))
		appErr = httperrors.ErrInternalServerError.WithCause(err)
	}
	httperrors.WriteError(w, appErr)
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
