package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("boom") })
	slow := PingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	resp := NewService(map[string]Pinger{"cache": ok}, 0).Check(context.Background())
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, map[string]string{"cache": "ok"}, resp.Checks)

	resp = NewService(map[string]Pinger{"cache": ok, "db": down, "slow": slow}, 20*time.Millisecond).Check(context.Background())
	require.Equal(t, "degraded", resp.Status)
	require.Equal(t, map[string]string{"cache": "ok", "db": "down", "slow": "down"}, resp.Checks)
}

func TestCheck_NoDependencies(t *testing.T) {
	resp := NewService(nil, 0).Check(context.Background())
	require.Equal(t, "ok", resp.Status)
	require.Empty(t, resp.Checks)
}
