package logger

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	once    sync.Once
	current atomic.Pointer[zap.Logger]
)

// Init arma el logger del proceso. Solo la primera llamada tiene efecto.
func Init(cfg Config) {
	once.Do(func() {
		current.Store(build(cfg))
	})
}

// L retorna el logger del proceso (dev/info si nadie llamó a Init).
func L() *zap.Logger {
	Init(Config{Env: "dev", Level: "info", ServiceName: "trustcore"})
	return current.Load()
}

// Swap reemplaza el logger del proceso y retorna la función que restaura el
// anterior. Pensado para tests que inspeccionan lo logueado.
func Swap(l *zap.Logger) (restore func()) {
	prev := L()
	current.Store(l)
	return func() { current.Store(prev) }
}

func Sync() error {
	if l := current.Load(); l != nil {
		return l.Sync()
	}
	return nil
}
