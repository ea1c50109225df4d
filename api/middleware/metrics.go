package middleware

import (
	"net/http"
	"strconv"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/metrics"
	"github.com/go-chi/chi/v5"
)

// Metrics counts requests by method, matched route pattern and status class.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			class := strconv.Itoa(rec.status/100) + "xx"
			m.HTTPRequests.WithLabelValues(r.Method, route, class).Inc()
		})
	}
}
