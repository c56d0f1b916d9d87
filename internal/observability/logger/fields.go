package logger

import (
	"time"

	"go.uber.org/zap"
)

// ---- HTTP ----

func RequestID(v string) zap.Field       { return zap.String("request_id", v) }
func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func DurationMs(v int64) zap.Field       { return zap.Int64("duration_ms", v) }
func Bytes(v int) zap.Field              { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field       { return zap.String("user_agent", v) }

// ---- Tokens / JWKS ----

// KeyID es el "kid" del header o del JWK.
func KeyID(v string) zap.Field { return zap.String("kid", v) }

// Alg es el algoritmo de firma (RS256, ES256).
func Alg(v string) zap.Field { return zap.String("alg", v) }

// Endpoint es la URL del endpoint de publicación de claves.
func Endpoint(v string) zap.Field { return zap.String("endpoint", v) }

// Kind es la categoría sigerr de un error.
func Kind(v string) zap.Field { return zap.String("kind", v) }

// SigLen registra el largo de una firma (nunca su contenido).
func SigLen(v int) zap.Field { return zap.Int("sig_len", v) }

// ---- Pairing ----

func Topic(v string) zap.Field   { return zap.String("topic", v) }
func Address(v string) zap.Field { return zap.String("address", v) }

// ---- Sistema ----

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }
func Count(v int) zap.Field        { return zap.Int("count", v) }

func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
