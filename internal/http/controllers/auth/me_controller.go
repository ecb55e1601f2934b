package auth

import (
	"net/http"

	httperrors "github.com/dropDatabas3/trustcore/internal/http/errors"
	"github.com/dropDatabas3/trustcore/internal/http/middlewares"
	"github.com/dropDatabas3/trustcore/internal/principal"
)

// MeController maneja GET /v1/users/me.
type MeController struct{}

func NewMeController() *MeController { return &MeController{} }

// Me devuelve el perfil del principal del SecurityContext. Requiere RequireAuthenticated.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	p := middlewares.CurrentPrincipal(r.Context())
	if p == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	noStore(w)
	httperrors.WriteJSON(w, http.StatusOK, principal.ToProfile(p))
}
