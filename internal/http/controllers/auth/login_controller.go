package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/trustcore/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/trustcore/internal/http/errors"
	svc "github.com/dropDatabas3/trustcore/internal/http/services/auth"
	"github.com/dropDatabas3/trustcore/internal/observability/logger"
)

// LoginController maneja POST /v1/auth/login.
type LoginController struct {
	service svc.LoginService
}

func NewLoginController(s svc.LoginService) *LoginController {
	return &LoginController{service: s}
}

func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.login"))

	var req dto.LoginRequest
	if err := httperrors.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	res, err := c.service.Login(ctx, req)
	if err != nil {
		handleServiceError(w, err, log)
		return
	}

	noStore(w)
	httperrors.WriteJSON(w, http.StatusOK, res)
}
