// Package server assembles the HTTP router of the lead capture service.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	adminhandler "lead-capture/internal/admin/handler"
	healthhandler "lead-capture/internal/health/handler"
	leadhandler "lead-capture/internal/lead/handler"
	pagehandler "lead-capture/internal/page/handler"
	"lead-capture/internal/server/middleware"
	"lead-capture/internal/telemetry"
)

// APIPrefix is the path prefix of the JSON API. It is exempt from CSRF checks.
const APIPrefix = "/api/"

// probePaths are neither logged, traced nor emitted as request events.
var probePaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
}

// Deps holds the route modules and cross-cutting settings of the router.
type Deps struct {
	// Leads serves POST /api/leads. If nil, the route is not mounted.
	Leads *leadhandler.Handler
	// Page serves the landing page and its form. If nil, the routes are not mounted.
	Page *pagehandler.Page
	// Admin serves login, listing and export. If nil, the routes are not mounted.
	Admin *adminhandler.Handler
	// Health serves /healthz and /readyz. If nil, the probes are not mounted.
	Health *healthhandler.Server
	// Events receives an http_request event per request. If nil, no request events are emitted.
	Events telemetry.EventEmitter
	// CSRFKey is the 32-byte gorilla/csrf authentication key. If empty, forms are not CSRF protected.
	CSRFKey []byte
	// SecureCookies marks the CSRF cookie Secure (production behind TLS).
	SecureCookies bool
	// ServiceName names the otelhttp server spans.
	ServiceName string
	Logger      *zap.Logger
}

// NewRouter mounts every configured module and wraps the router with access logging, request events,
// CSRF protection and OpenTelemetry instrumentation. Form bodies are capped at MaxFormBytes before the
// CSRF check parses them; the JSON API enforces its own limit.
func NewRouter(deps Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.AccessLog(deps.Logger, probePaths))
	r.Use(middleware.Telemetry(deps.Events, probePaths))

	if deps.Health != nil {
		deps.Health.Register(r)
	}
	if deps.Leads != nil {
		deps.Leads.Register(r)
	}
	if deps.Page != nil {
		deps.Page.Register(r)
	}
	if deps.Admin != nil {
		deps.Admin.Register(r)
	}

	var h http.Handler = r
	if len(deps.CSRFKey) > 0 {
		h = middleware.CSRF(deps.CSRFKey, deps.SecureCookies, APIPrefix)(h)
	}
	h = middleware.MaxBody(pagehandler.MaxFormBytes, APIPrefix)(h)
	name := deps.ServiceName
	if name == "" {
		name = telemetry.SourceServer
	}
	return otelhttp.NewHandler(h, name, otelhttp.WithFilter(func(r *http.Request) bool {
		return !probePaths[r.URL.Path]
	}))
}
