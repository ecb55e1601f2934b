// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez, en el comando serve):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
// En middlewares/servicios:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("auth.login"))
//	log.Debug("token rejected", logger.Err(err))
//
// Los middlewares de HTTP inyectan un logger con request_id, method y path;
// el middleware de autenticación agrega principal_id una vez resuelto el principal.
package logger
