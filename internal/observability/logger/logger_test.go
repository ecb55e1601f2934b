package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFrom_FallsBackToProcessLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer Swap(zap.New(core))()

	From(context.Background()).Info("plain")
	//nolint:staticcheck // ctx nil también cae al logger del proceso
	From(nil).Info("nil ctx")
	require.Equal(t, 2, logs.Len())
}

func TestScope_AccumulatesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer Swap(zap.New(core))()

	ctx, _ := Scope(context.Background(), RequestID("req-1"))
	ctx, l := Scope(ctx, PrincipalID("u-1"))
	l.Info("direct")
	From(ctx).Info("from ctx")

	require.Equal(t, 2, logs.Len())
	for _, e := range logs.All() {
		fields := e.ContextMap()
		require.Equal(t, "req-1", fields["request_id"])
		require.Equal(t, "u-1", fields["principal_id"])
	}
}

func TestSwap_Restores(t *testing.T) {
	prev := L()
	core, _ := observer.New(zapcore.InfoLevel)
	restore := Swap(zap.New(core))
	require.NotSame(t, prev, L())
	restore()
	require.Same(t, prev, L())
}
