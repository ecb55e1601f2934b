package principal

import "github.com/dropDatabas3/trustcore/internal/security/password"

// hash contra el que se compara cuando el usuario no existe, para que el
// tiempo de respuesta no delate usernames.
var dummyHash, _ = password.Hash(password.Default, "trustcore-dummy-password")

// HashPassword genera un hash argon2id con los parámetros por defecto.
func HashPassword(plain string) (string, error) {
	return password.Hash(password.Default, plain)
}

// VerifyPassword acepta hashes argon2id y bcrypt. hash vacío compara contra dummyHash y falla.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		_ = password.Verify(plain, dummyHash)
		return false
	}
	return password.Verify(plain, hash)
}
