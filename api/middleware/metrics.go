package middleware

import (
	"net/http"
	"time"
)

type requestObserver interface {
	Observe(route, method string, status int, elapsed time.Duration)
}

// Metrics records latency per chi route pattern so path parameters do not explode
// label cardinality. Unmatched requests are reported as "unmatched".
func Metrics(observer requestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if observer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			observer.Observe(routePattern(r), r.Method, rec.Status(), time.Since(start))
		})
	}
}
