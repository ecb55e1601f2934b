// Package principals expone la lectura de principals por id para administradores.
package principals

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/trustcore/internal/http/errors"
	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/go-chi/chi/v5"
)

// PermRead es el permiso que exige GET /v1/principals/{id}.
const PermRead = "principals.read"

type Controller struct {
	dir principal.Directory
}

func NewController(dir principal.Directory) *Controller { return &Controller{dir: dir} }

// Get maneja GET /v1/principals/{id}
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if id == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("id"))
		return
	}
	p, err := c.dir.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, principal.ErrPrincipalNotFound) {
			httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("principal"))
			return
		}
		logger.From(ctx).Error("principal lookup failed", logger.Layer("controller"), logger.Op("principals.get"), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, principal.ToProfile(p))
}
