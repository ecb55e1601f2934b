package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dropDatabas3/trustcore/internal/cache"
	"github.com/dropDatabas3/trustcore/internal/metrics"
	"github.com/dropDatabas3/trustcore/internal/security/totp"
)

// CodeVerifier verifica códigos TOTP y marca el paso usado para que el mismo código
// no se acepte dos veces para el mismo principal.
type CodeVerifier struct {
	engine *totp.Engine
	used   cache.Client // nil = sin anti-replay
	now    func() time.Time
}

func NewCodeVerifier(engine *totp.Engine, used cache.Client, now func() time.Time) *CodeVerifier {
	if now == nil {
		now = time.Now
	}
	return &CodeVerifier{engine: engine, used: used, now: now}
}

// replayTTL cubre toda la ventana [N-skew, N+skew] del paso aceptado.
func (v *CodeVerifier) replayTTL() time.Duration {
	s := v.engine.Settings()
	return time.Duration(2*s.Skew+1) * time.Duration(s.Period) * time.Second
}

func replayKey(principalID string, step int64) string {
	return "totp:used:" + principalID + ":" + strconv.FormatInt(step, 10)
}

// Verify retorna ErrMFACodeInvalid si el código no coincide o ya fue usado.
// Si el store de anti-replay falla, el código se rechaza.
func (v *CodeVerifier) Verify(ctx context.Context, principalID, secret, code string) error {
	step, ok := v.engine.MatchStep(code, secret, v.now())
	if !ok {
		metrics.TOTPVerifications.WithLabelValues("invalid").Inc()
		return ErrMFACodeInvalid
	}
	if v.used != nil {
		fresh, err := v.used.SetNX(ctx, replayKey(principalID, step), "1", v.replayTTL())
		if err != nil {
			return fmt.Errorf("%w: replay guard: %w", ErrStoreFailed, err)
		}
		if !fresh {
			metrics.TOTPVerifications.WithLabelValues("replayed").Inc()
			return fmt.Errorf("%w: code already used", ErrMFACodeInvalid)
		}
	}
	metrics.TOTPVerifications.WithLabelValues("valid").Inc()
	return nil
}
