package auth

// EnrollTOTPResponse es la respuesta de POST /v1/mfa/totp/enroll
type EnrollTOTPResponse struct {
	SecretBase32 string `json:"secret_base32"`
	OTPAuthURL   string `json:"otpauth_url"`
	QRCode       string `json:"qr_code"` // data:image/png;base64,...
}

// ConfirmTOTPRequest es el body de POST /v1/mfa/totp/confirm
type ConfirmTOTPRequest struct {
	Code string `json:"code"`
}

// ConfirmTOTPResponse es la respuesta de POST /v1/mfa/totp/confirm
type ConfirmTOTPResponse struct {
	Enabled bool `json:"enabled"`
}
