// Package health contiene el DTO de GET /healthz.
package health

type Response struct {
	Status string            `json:"status"` // ok | degraded
	Checks map[string]string `json:"checks,omitempty"`
}
