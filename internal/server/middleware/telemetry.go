package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"lead-capture/internal/telemetry"
)

// Telemetry returns middleware that emits an http_request event after each request.
// Best-effort: the emit runs through telemetry.EmitAsync and never fails the request.
// A nil emitter disables the middleware. Paths in skip (e.g. health probes) are not emitted.
func Telemetry(emitter telemetry.EventEmitter, skip map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if emitter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)
			if skip[r.URL.Path] {
				return
			}
			telemetry.EmitAsync(emitter, r.Context(), &telemetry.Event{
				EventType: telemetry.EventHTTPRequest,
				Source:    telemetry.SourceServer,
				Attributes: map[string]string{
					"method":      r.Method,
					"route":       routeTemplate(r),
					"status_code": strconv.Itoa(rec.status),
					"duration_ms": strconv.FormatInt(time.Since(start).Milliseconds(), 10),
					"client_ip":   ClientIP(r),
				},
				CreatedAt: start.UTC(),
			})
		})
	}
}

// routeTemplate returns the matched mux path template, or the raw path when no route matched.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
