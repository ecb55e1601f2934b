package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/trustcore/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/trustcore/internal/http/errors"
	"github.com/dropDatabas3/trustcore/internal/http/middlewares"
	svc "github.com/dropDatabas3/trustcore/internal/http/services/auth"
	"github.com/dropDatabas3/trustcore/internal/observability/logger"
)

// MFATOTPController maneja los endpoints de enrolamiento TOTP.
type MFATOTPController struct {
	service svc.MFATOTPService
}

func NewMFATOTPController(s svc.MFATOTPService) *MFATOTPController {
	return &MFATOTPController{service: s}
}

// Enroll maneja POST /v1/mfa/totp/enroll
func (c *MFATOTPController) Enroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("mfa.totp.enroll"))

	p := middlewares.CurrentPrincipal(ctx)
	if p == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	prov, err := c.service.Enroll(ctx, p)
	if err != nil {
		handleServiceError(w, err, log)
		return
	}

	// La respuesta lleva el secreto
	noStore(w)
	httperrors.WriteJSON(w, http.StatusOK, dto.EnrollTOTPResponse{
		SecretBase32: prov.Secret.String(),
		OTPAuthURL:   prov.URI,
		QRCode:       prov.QRCode,
	})
}

// Confirm maneja POST /v1/mfa/totp/confirm
func (c *MFATOTPController) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("mfa.totp.confirm"))

	p := middlewares.CurrentPrincipal(ctx)
	if p == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req dto.ConfirmTOTPRequest
	if err := httperrors.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	if err := c.service.Confirm(ctx, p, req.Code); err != nil {
		handleServiceError(w, err, log)
		return
	}
	noStore(w)
	httperrors.WriteJSON(w, http.StatusOK, dto.ConfirmTOTPResponse{Enabled: true})
}
