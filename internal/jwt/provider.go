package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrWeakSecret   = errors.New("jwt secret too short")
)

const (
	// MinSecretLen es el mínimo aceptado para HS512.
	MinSecretLen = 32
	// DefaultTTL: una semana.
	DefaultTTL = 168 * time.Hour
)

// claims que el llamador no puede pisar en Issue.
var reserved = []string{"sub", "iat", "exp", "jti", "iss"}

// Token emitido por Provider.Issue.
type Token struct {
	Raw       string    `json:"access_token"`
	ID        string    `json:"jti"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t Token) String() string { return t.Raw }

// Claims es la vista tipada de un token ya validado.
type Claims struct {
	Subject   string
	ID        string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any // claims no registradas
}

// Provider firma y valida tokens HS512 con un único secreto de proceso.
// Inmutable tras NewProvider.
type Provider struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwtv5.Parser
}

type Option func(*Provider)

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithIssuer setea "iss" al emitir y lo exige al validar.
func WithIssuer(iss string) Option {
	return func(p *Provider) { p.issuer = strings.TrimSpace(iss) }
}

// NewProvider valida el secreto y arma el parser. ttl<=0 usa DefaultTTL.
func NewProvider(secret []byte, ttl time.Duration, opts ...Option) (*Provider, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrWeakSecret, len(secret), MinSecretLen)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	p := &Provider{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, o := range opts {
		o(p)
	}

	popts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS512.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithIssuedAt(),
		jwtv5.WithStrictDecoding(),
		jwtv5.WithTimeFunc(func() time.Time { return p.now() }),
	}
	if p.issuer != "" {
		popts = append(popts, jwtv5.WithIssuer(p.issuer))
	}
	p.parser = jwtv5.NewParser(popts...)
	return p, nil
}

// TTL configurado.
func (p *Provider) TTL() time.Duration { return p.ttl }

// Issue firma un token para subject con exp = now + TTL.
func (p *Provider) Issue(subject string, extra map[string]any) (Token, error) {
	if strings.TrimSpace(subject) == "" {
		return Token{}, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	now := p.now().Truncate(time.Second)
	exp := now.Add(p.ttl)
	jti := uuid.NewString()

	mc := jwtv5.MapClaims{}
	for k, v := range extra {
		mc[k] = v
	}
	for _, k := range reserved {
		delete(mc, k)
	}
	mc["sub"] = subject
	mc["iat"] = jwtv5.NewNumericDate(now)
	mc["exp"] = jwtv5.NewNumericDate(exp)
	mc["jti"] = jti
	if p.issuer != "" {
		mc["iss"] = p.issuer
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS512, mc)
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(p.secret)
	if err != nil {
		return Token{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return Token{Raw: signed, ID: jti, IssuedAt: now, ExpiresAt: exp}, nil
}

// Validate es true sólo si la firma verifica y now < exp. Nunca entra en pánico.
func (p *Provider) Validate(token string) bool {
	_, err := p.Parse(token)
	return err == nil
}

// SubjectOf retorna "sub" de un token válido.
func (p *Provider) SubjectOf(token string) (string, error) {
	c, err := p.Parse(token)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// ExpiryOf retorna "exp" de un token válido.
func (p *Provider) ExpiryOf(token string) (time.Time, error) {
	c, err := p.Parse(token)
	if err != nil {
		return time.Time{}, err
	}
	return c.ExpiresAt, nil
}

// Parse verifica firma y vigencia. Errores: ErrExpiredToken o ErrInvalidToken.
func (p *Provider) Parse(token string) (claims *Claims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims, err = nil, fmt.Errorf("%w: %v", ErrInvalidToken, r)
		}
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	mc := jwtv5.MapClaims{}
	tk, err := p.parser.ParseWithClaims(token, mc, func(*jwtv5.Token) (any, error) {
		return p.secret, nil
	})
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case !tk.Valid:
		return nil, ErrInvalidToken
	}
	return toClaims(mc)
}

func toClaims(mc jwtv5.MapClaims) (*Claims, error) {
	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	out := &Claims{Subject: sub, Extra: map[string]any{}}
	out.Issuer, _ = mc.GetIssuer()
	out.ID, _ = mc["jti"].(string)
	if exp, _ := mc.GetExpirationTime(); exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, _ := mc.GetIssuedAt(); iat != nil {
		out.IssuedAt = iat.Time
	}
	for k, v := range mc {
		if !isReserved(k) {
			out.Extra[k] = v
		}
	}
	return out, nil
}

func isReserved(k string) bool {
	for _, r := range reserved {
		if r == k {
			return true
		}
	}
	return false
}
