// Package totp implementa TOTP (RFC 6238) sobre HOTP (RFC 4226): generación de secretos,
// URIs otpauth:// para QR y verificación con ventana de tolerancia (skew).
package totp

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

var (
	ErrQRGenerationFailed = errors.New("qr generation failed")
	ErrInvalidSettings    = errors.New("invalid totp settings")
)

// Settings de TOTP. Se cargan una vez al inicio y no cambian.
type Settings struct {
	Digits     int    `yaml:"digits"`      // largo del código (6..8)
	Period     uint   `yaml:"period"`      // segundos por paso
	Skew       uint   `yaml:"skew"`        // pasos tolerados antes/después del actual
	Algorithm  string `yaml:"algorithm"`   // SHA1 | SHA256 | SHA512
	Issuer     string `yaml:"issuer"`      // sólo cosmético (URI)
	Label      string `yaml:"label"`       // sólo cosmético (URI)
	SecretSize int    `yaml:"secret_size"` // bytes aleatorios del secreto
	QRSize     int    `yaml:"qr_size"`     // lado del PNG en px
}

// DefaultSettings: 6 dígitos, 30s, skew 2, SHA1, secreto de 20 bytes.
func DefaultSettings() Settings {
	return Settings{
		Digits:     6,
		Period:     30,
		Skew:       2,
		Algorithm:  "SHA1",
		SecretSize: 20,
		QRSize:     256,
	}
}

// Secret es el secreto en base32 sin padding.
type Secret string

func (s Secret) String() string { return string(s) }

// Provisioning agrupa lo que se muestra al usuario al enrolar.
type Provisioning struct {
	Secret Secret `json:"secret"`
	URI    string `json:"otpauth_url"`
	QRCode string `json:"qr_code"` // data:image/png;base64,...
}

// Engine es inmutable tras New; seguro para uso concurrente.
type Engine struct {
	s     Settings
	alg   otp.Algorithm
	now   func() time.Time
	rand  io.Reader
	b32   *base32.Encoding
	steps int64
}

type Option func(*Engine)

// WithClock reemplaza la fuente de tiempo (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand reemplaza la fuente de aleatoriedad (tests).
func WithRand(r io.Reader) Option {
	return func(e *Engine) { e.rand = r }
}

// New valida settings y construye el engine. Campos en cero toman el default.
func New(s Settings, opts ...Option) (*Engine, error) {
	def := DefaultSettings()
	if s.Digits == 0 {
		s.Digits = def.Digits
	}
	if s.Period == 0 {
		s.Period = def.Period
	}
	if s.Algorithm == "" {
		s.Algorithm = def.Algorithm
	}
	if s.SecretSize == 0 {
		s.SecretSize = def.SecretSize
	}
	if s.QRSize == 0 {
		s.QRSize = def.QRSize
	}
	if s.Digits < 6 || s.Digits > 8 {
		return nil, fmt.Errorf("%w: digits=%d (6..8)", ErrInvalidSettings, s.Digits)
	}
	if s.SecretSize < 10 {
		return nil, fmt.Errorf("%w: secret_size=%d (min 10)", ErrInvalidSettings, s.SecretSize)
	}
	alg, err := ParseAlgorithm(s.Algorithm)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		s:     s,
		alg:   alg,
		now:   time.Now,
		rand:  rand.Reader,
		b32:   base32.StdEncoding.WithPadding(base32.NoPadding),
		steps: int64(s.Skew),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// ParseAlgorithm traduce el nombre configurado al algoritmo de otp.
func ParseAlgorithm(name string) (otp.Algorithm, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "")) {
	case "SHA1":
		return otp.AlgorithmSHA1, nil
	case "SHA256":
		return otp.AlgorithmSHA256, nil
	case "SHA512":
		return otp.AlgorithmSHA512, nil
	default:
		return otp.AlgorithmSHA1, fmt.Errorf("%w: algorithm=%q", ErrInvalidSettings, name)
	}
}

// Settings retorna una copia de la configuración efectiva.
func (e *Engine) Settings() Settings { return e.s }

// GenerateSecret retorna SecretSize bytes aleatorios en base32 sin padding.
// La unicidad es responsabilidad del llamador.
func (e *Engine) GenerateSecret() (Secret, error) {
	raw := make([]byte, e.s.SecretSize)
	if _, err := io.ReadFull(e.rand, raw); err != nil {
		return "", fmt.Errorf("totp: random: %w", err)
	}
	return Secret(e.b32.EncodeToString(raw)), nil
}

// ProvisioningURI construye otpauth://totp/{issuer}:{label}?secret=...&issuer=...&algorithm=...&digits=...&period=...
// Si label/issuer vienen vacíos se usan los de Settings; sin label la cuenta
// toma el issuer.
func (e *Engine) ProvisioningURI(secret, label, issuer string) string {
	if label == "" {
		label = e.s.Label
	}
	if issuer == "" {
		issuer = e.s.Issuer
	}
	if label == "" {
		label = issuer
	}
	account := label
	if issuer != "" {
		account = issuer + ":" + label
	}
	q := url.Values{}
	q.Set("secret", secret)
	if issuer != "" {
		q.Set("issuer", issuer)
	}
	q.Set("algorithm", e.alg.String())
	q.Set("digits", strconv.Itoa(e.s.Digits))
	q.Set("period", strconv.FormatUint(uint64(e.s.Period), 10))
	return "otpauth://totp/" + url.PathEscape(account) + "?" + q.Encode()
}

// QRCode renderiza la URI como PNG y la devuelve como data URI.
func (e *Engine) QRCode(uri string) (string, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrQRGenerationFailed, err)
	}
	if key.AccountName() == "" {
		return "", fmt.Errorf("%w: %w: empty account", ErrQRGenerationFailed, ErrInvalidSettings)
	}
	code, err := qr.Encode(uri, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrQRGenerationFailed, err)
	}
	scaled, err := barcode.Scale(code, e.s.QRSize, e.s.QRSize)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrQRGenerationFailed, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", fmt.Errorf("%w: %w", ErrQRGenerationFailed, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Provision arma URI + QR para un secreto existente.
func (e *Engine) Provision(secret Secret, label, issuer string) (*Provisioning, error) {
	uri := e.ProvisioningURI(secret.String(), label, issuer)
	img, err := e.QRCode(uri)
	if err != nil {
		return nil, err
	}
	return &Provisioning{Secret: secret, URI: uri, QRCode: img}, nil
}

// Step retorna floor(unix(t) / period).
func (e *Engine) Step(t time.Time) int64 {
	return t.Unix() / int64(e.s.Period)
}

// CodeAt calcula el código esperado para el paso que contiene t.
func (e *Engine) CodeAt(secret string, t time.Time) (string, error) {
	return e.codeForStep(secret, e.Step(t))
}

func (e *Engine) codeForStep(secret string, step int64) (string, error) {
	if step < 0 {
		return "", fmt.Errorf("totp: negative step %d", step)
	}
	return hotp.GenerateCodeCustom(secret, uint64(step), hotp.ValidateOpts{
		Digits:    otp.Digits(e.s.Digits),
		Algorithm: e.alg,
	})
}

// VerifyCode verifica code contra el tiempo actual.
func (e *Engine) VerifyCode(code, secret string) bool {
	_, ok := e.MatchStep(code, secret, e.now())
	return ok
}

// VerifyCodeAt verifica code contra un instante explícito.
func (e *Engine) VerifyCodeAt(code, secret string, t time.Time) bool {
	_, ok := e.MatchStep(code, secret, t)
	return ok
}

// MatchStep recorre todos los pasos de [N-skew, N+skew] sin cortar en el primer match
// y retorna el paso que coincidió (para anti-replay).
func (e *Engine) MatchStep(code, secret string, t time.Time) (int64, bool) {
	code = strings.TrimSpace(code)
	if len(code) != e.s.Digits {
		return 0, false
	}
	current := e.Step(t)
	matched, found := 0, 0
	for step := current - e.steps; step <= current+e.steps; step++ {
		if step < 0 {
			continue
		}
		expected, err := e.codeForStep(secret, step)
		if err != nil {
			return 0, false
		}
		eq := subtle.ConstantTimeCompare([]byte(expected), []byte(code))
		matched = subtle.ConstantTimeSelect(eq&(1-found), int(step), matched)
		found |= eq
	}
	return int64(matched), found == 1
}
