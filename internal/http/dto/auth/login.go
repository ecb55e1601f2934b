// Package auth contiene los DTOs de los endpoints de autenticación y MFA.
package auth

// LoginRequest es el body de POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"` // TOTP, sólo si el principal tiene MFA
}

// LoginResponse usa camelCase: es el formato que ya consumen los clientes.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}
