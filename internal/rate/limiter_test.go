package rate

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/trustcore/internal/cache"
	"github.com/stretchr/testify/require"
)

func TestFixedWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 5, 0, time.UTC)
	l := NewFixedWindow(cache.NewMemory(""), "", Policy{Limit: 2, Window: time.Minute})
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "1.2.3.4|/v1/auth/login")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, "1.2.3.4|/v1/auth/login")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.EqualValues(t, 0, res.Remaining)
	require.Greater(t, res.RetryAfter, time.Duration(0))

	res, err = l.Allow(ctx, "5.6.7.8|/v1/auth/login")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.EqualValues(t, 1, res.Remaining)

	now = now.Add(time.Minute)
	res, err = l.Allow(ctx, "1.2.3.4|/v1/auth/login")
	require.NoError(t, err)
	require.True(t, res.Allowed, "new window resets the counter")
}

func TestFixedWindow_DisabledPolicy(t *testing.T) {
	l := NewFixedWindow(cache.NewMemory(""), "x", Policy{})
	for i := 0; i < 100; i++ {
		res, err := l.Allow(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
}
