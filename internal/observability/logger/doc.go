// Package logger expone un logger Zap único para todo el servicio, con
// scoping por request a través del context.
//
// Inicialización (una vez, en main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
// En services y handlers:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("password_grant"))
//	log.Info("login ok", logger.PrincipalID(p.ID))
package logger
