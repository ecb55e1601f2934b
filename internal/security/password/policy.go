package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrWeakPassword = errors.New("password: does not meet policy")

// Policy son las reglas mínimas para passwords nuevos (alta de principals).
type Policy struct {
	MinLength     int  `yaml:"min_length"`
	RequireUpper  bool `yaml:"require_upper"`
	RequireLower  bool `yaml:"require_lower"`
	RequireDigit  bool `yaml:"require_digit"`
	RequireSymbol bool `yaml:"require_symbol"`
}

// Check retorna ErrWeakPassword con las reglas incumplidas (too_short, missing_upper, ...).
func (p Policy) Check(s string) error {
	var reasons []string
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	for _, rule := range []struct {
		required, ok bool
		reason       string
	}{
		{p.RequireUpper, hasU, "missing_upper"},
		{p.RequireLower, hasL, "missing_lower"},
		{p.RequireDigit, hasD, "missing_digit"},
		{p.RequireSymbol, hasS, "missing_symbol"},
	} {
		if rule.required && !rule.ok {
			reasons = append(reasons, rule.reason)
		}
	}
	if len(reasons) > 0 {
		return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(reasons, ","))
	}
	return nil
}
