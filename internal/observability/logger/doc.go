// Package logger expone un logger Zap único para el proceso con scoping por contexto.
//
// Init se llama una vez desde main; los cores (jwt, recovery, pairing) obtienen
// el logger con From(ctx), que cae al singleton si el caller no inyectó uno.
//
//	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Component("jwks"))
//	log.Debug("jwks refreshed", logger.Count(n))
//
// Nunca loguear tokens completos ni firmas: sólo kid, alg y tamaños.
package logger
