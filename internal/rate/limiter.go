// Package rate implementa rate limiting fixed-window sobre cache.Client,
// de modo que funciona igual con memoria (un nodo) o Redis (varias réplicas).
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/trustcore/internal/cache"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Policy: Limit requests por Window.
type Policy struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

func (p Policy) Enabled() bool { return p.Limit > 0 && p.Window > 0 }

// FixedWindow cuenta hits por ventana alineada a Window.
type FixedWindow struct {
	store  cache.Client
	prefix string
	policy Policy
	now    func() time.Time
}

func NewFixedWindow(store cache.Client, prefix string, p Policy) *FixedWindow {
	if prefix == "" {
		prefix = "rl"
	}
	return &FixedWindow{store: store, prefix: prefix, policy: p, now: time.Now}
}

func (l *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	if !l.policy.Enabled() {
		return Result{Allowed: true, Remaining: -1}, nil
	}
	winStart := l.now().UTC().Truncate(l.policy.Window)
	k := fmt.Sprintf("%s:%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	hits, ttl, err := l.store.Incr(ctx, k, l.policy.Window)
	if err != nil {
		return Result{}, err
	}
	max := int64(l.policy.Limit)
	res := Result{
		Allowed:     hits <= max,
		Remaining:   max - hits,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = l.policy.Window
		}
	}
	return res, nil
}
