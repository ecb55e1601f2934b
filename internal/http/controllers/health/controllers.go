// Package health contiene el controller de GET /healthz.
package health

import (
	"net/http"

	httperrors "github.com/dropDatabas3/trustcore/internal/http/errors"
	svc "github.com/dropDatabas3/trustcore/internal/http/services/health"
)

type Controller struct {
	service svc.Service
}

func NewController(s svc.Service) *Controller { return &Controller{service: s} }

// Healthz responde 200 si todas las dependencias responden, 503 si alguna falla.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := c.service.Check(r.Context())
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	httperrors.WriteJSON(w, status, resp)
}
