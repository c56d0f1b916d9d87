package middlewares

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/sigverify/internal/observability/logger"
)

// WithLogging registra cada request con campos estructurados e inyecta en el
// contexto un logger con request_id, method y path para controllers y cores.
//
// Ejemplo de log (prod):
//
//	{"level":"info","ts":"2024-01-15T15:04:05.000Z","msg":"request completed","request_id":"abc123","method":"POST","path":"/v1/tokens/verify","status":200,"bytes":256,"duration_ms":3}
func WithLogging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := GetRequestID(r.Context())
			if requestID == "" {
				requestID = w.Header().Get("X-Request-ID")
			}

			reqLog := logger.L().With(
				logger.RequestID(requestID),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)
			ctx := logger.ToContext(r.Context(), reqLog)

			rec := newRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			levelFor(rec.code)(reqLog)("request completed",
				logger.Status(rec.code),
				logger.Bytes(rec.size),
				logger.DurationMs(time.Since(start).Milliseconds()),
			)
		})
	}
}

// WithDebugLogging es como WithLogging pero también loguea el inicio del request.
func WithDebugLogging() Middleware {
	inner := WithLogging()
	return func(next http.Handler) http.Handler {
		logged := inner(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.L().Debug("request started",
				logger.RequestID(GetRequestID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.ClientIP(clientIP(r)),
				logger.UserAgent(r.UserAgent()),
			)
			logged.ServeHTTP(w, r)
		})
	}
}

// levelFor: 5xx error, 4xx warn, resto info.
func levelFor(code int) func(*zap.Logger) func(string, ...zap.Field) {
	return func(l *zap.Logger) func(string, ...zap.Field) {
		switch {
		case code >= 500:
			return l.Error
		case code >= 400:
			return l.Warn
		}
		return l.Info
	}
}
