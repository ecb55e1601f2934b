// Package principal define el principal autenticado y el contrato de directorio
// con el que el resto del núcleo lo resuelve (por username o por id).
package principal

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFAUnsupported     = errors.New("directory does not store mfa secrets")
)

// Principal es inmutable una vez cargado: sólo expone lecturas y las que
// devuelven slices devuelven copias.
type Principal struct {
	id          string
	username    string
	roles       []string
	permissions []string
	permSet     map[string]struct{}
	mfaSecret   string
}

// Attrs son los datos con los que se construye un Principal.
type Attrs struct {
	ID          string
	Username    string
	Roles       []string
	Permissions []string
	MFASecret   string // forma almacenada (puede estar cifrada); vacío = sin MFA
}

func New(a Attrs) *Principal {
	p := &Principal{
		id:          a.ID,
		username:    a.Username,
		roles:       dedup(a.Roles),
		permissions: dedup(a.Permissions),
		mfaSecret:   a.MFASecret,
	}
	p.permSet = make(map[string]struct{}, len(p.permissions))
	for _, c := range p.permissions {
		p.permSet[c] = struct{}{}
	}
	return p
}

func (p *Principal) ID() string            { return p.id }
func (p *Principal) Username() string      { return p.username }
func (p *Principal) MFASecret() string     { return p.mfaSecret }
func (p *Principal) MFAEnabled() bool      { return p.mfaSecret != "" }
func (p *Principal) Roles() []string       { return append([]string(nil), p.roles...) }
func (p *Principal) Permissions() []string { return append([]string(nil), p.permissions...) }

// Has reporta si code está entre los permisos asignados. Comparación exacta.
func (p *Principal) Has(code string) bool {
	_, ok := p.permSet[code]
	return ok
}

// Attrs devuelve una copia editable (para adapters y tests).
func (p *Principal) Attrs() Attrs {
	return Attrs{
		ID:          p.id,
		Username:    p.username,
		Roles:       p.Roles(),
		Permissions: p.Permissions(),
		MFASecret:   p.mfaSecret,
	}
}

func dedup(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Directory resuelve principals. Ambos métodos devuelven ErrPrincipalNotFound si no existe.
type Directory interface {
	FindByUsername(ctx context.Context, username string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
}

// CredentialChecker valida usuario+password (login).
type CredentialChecker interface {
	CheckPassword(ctx context.Context, username, password string) (*Principal, error)
}

// MFAEnrollment es el estado TOTP de un principal.
type MFAEnrollment struct {
	Secret      string // forma almacenada
	ConfirmedAt *time.Time
}

func (e *MFAEnrollment) Confirmed() bool { return e != nil && e.ConfirmedAt != nil }

// MFAStore persiste el secreto TOTP. Un secreto sin confirmar no activa MFA en el login.
type MFAStore interface {
	PutMFA(ctx context.Context, principalID, secret string) error
	GetMFA(ctx context.Context, principalID string) (*MFAEnrollment, error)
	ConfirmMFA(ctx context.Context, principalID string, at time.Time) error
}
