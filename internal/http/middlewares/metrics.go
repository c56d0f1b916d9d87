package middlewares

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/sigverify/internal/metrics"
)

// WithMetrics instrumenta requests HTTP con métricas Prometheus (contadores,
// latencia, inflight). El label path es el patrón de chi (/v1/pairings/{topic}/complete),
// nunca el path crudo.
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := strings.ToUpper(r.Method)
			metrics.HTTPInflight.WithLabelValues(method).Inc()
			start := time.Now()

			rec := newRecorder(w)
			defer func() {
				metrics.HTTPInflight.WithLabelValues(method).Dec()
				path := routePattern(r)
				metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
				metrics.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(rec.code)).Inc()
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
