package metrics

import (
	"net/http"
	"strings"
	"time"
)

// unmatchedRoute labels requests no route pattern claimed (404s, 405s).
const unmatchedRoute = "unmatched"

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware records request metrics labelled by the matched ServeMux
// pattern rather than the raw path, so path wildcards such as report keys
// share one series. It must wrap the mux directly.
func HTTPMiddleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.InFlightInc()
			defer reg.InFlightDec()

			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			reg.RecordRequest(r.Method, routeOf(r), rw.statusCode, time.Since(start).Seconds())
		})
	}
}

// routeOf returns the path part of the pattern the mux matched, e.g.
// "/api/v1/reports/{key...}".
func routeOf(r *http.Request) string {
	p := r.Pattern
	if p == "" {
		return unmatchedRoute
	}
	if i := strings.IndexByte(p, ' '); i >= 0 {
		p = p[i+1:]
	}
	return p
}
