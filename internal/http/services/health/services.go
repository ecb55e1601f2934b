// Package health agrega los pings de las dependencias para GET /healthz.
package health

import (
	"context"
	"sort"
	"time"

	dto "github.com/dropDatabas3/trustcore/internal/http/dto/health"
	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	"golang.org/x/sync/errgroup"
)

// Pinger es cualquier dependencia que sabe responder un ping (cache, pool de pg).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapta una función a Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Service interface {
	Check(ctx context.Context) dto.Response
}

type service struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewService crea el service. timeout<=0 usa 2s por check.
func NewService(checks map[string]Pinger, timeout time.Duration) Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &service{checks: checks, timeout: timeout}
}

// Check corre los pings en paralelo. Un ping caído deja status "degraded".
func (s *service) Check(ctx context.Context) dto.Response {
	names := make([]string, 0, len(s.checks))
	for n := range s.checks {
		names = append(names, n)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()
			if err := s.checks[name].Ping(cctx); err != nil {
				logger.From(ctx).Warn("health check failed", logger.Component("health"), logger.String("check", name), logger.Err(err))
				results[i] = "down"
				return nil
			}
			results[i] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	resp := dto.Response{Status: "ok", Checks: make(map[string]string, len(names))}
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i] != "ok" {
			resp.Status = "degraded"
		}
	}
	return resp
}
