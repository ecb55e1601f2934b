package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// DurationMs registra la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

// ─── Seguridad ───

// Subject es el "sub" del token validado.
func Subject(v string) zap.Field { return zap.String("subject", v) }

// Username se loguea enmascarado; usar MaskString antes si el valor viene del cliente.
func Username(v string) zap.Field { return zap.String("username", v) }

// PrincipalID identifica al principal resuelto por el directorio.
func PrincipalID(v string) zap.Field { return zap.String("principal_id", v) }

// Permission es un código de permiso evaluado.
func Permission(v string) zap.Field { return zap.String("permission", v) }

// Permissions es una lista de códigos evaluados.
func Permissions(v []string) zap.Field { return zap.Strings("permissions", v) }

// Decision es el resultado de una evaluación (true/false).
func Decision(v bool) zap.Field { return zap.Bool("decision", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func String(key, v string) zap.Field {
	return zap.String(key, v)
}

func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
