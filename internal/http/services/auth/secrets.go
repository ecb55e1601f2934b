package auth

import "github.com/dropDatabas3/trustcore/internal/security/cipher"

// SecretSealer cifra el secreto TOTP antes de persistirlo y lo abre al verificar.
type SecretSealer interface {
	Seal(plain string) (string, error)
	Open(stored string) (string, error)
}

// NewSecretSealer usa box si no es nil; sin box los secretos se guardan en claro.
func NewSecretSealer(box *cipher.Box) SecretSealer {
	if box == nil {
		return plainSealer{}
	}
	return boxSealer{box: box}
}

type boxSealer struct{ box *cipher.Box }

func (s boxSealer) Seal(plain string) (string, error)  { return s.box.Encrypt(plain) }
func (s boxSealer) Open(stored string) (string, error) { return s.box.Decrypt(stored) }

type plainSealer struct{}

func (plainSealer) Seal(plain string) (string, error)  { return plain, nil }
func (plainSealer) Open(stored string) (string, error) { return stored, nil }
