package api

import (
	"net/http"
)

// Route paths.
const (
	routeEnhance = "/api/enhance"
	routeContact = "/api/contact"
	routeHealth  = "/api/health"
)

// RouterConfig wires the API handlers and optional middleware.
type RouterConfig struct {
	Handler *Handler
	// RateLimiter limits the enhance and contact routes; nil disables it.
	RateLimiter *RateLimiter
	// AllowedOrigins lists browser origins allowed by CORS.
	AllowedOrigins []string
	// AllowLocalhost additionally allows any http://localhost origin.
	AllowLocalhost bool
	// EnvVars are reported (set/unset) by the env-status middleware.
	EnvVars []string
	// LookupEnv overrides os.LookupEnv for the env-status middleware.
	LookupEnv func(string) (string, bool)
	// DisableMetrics suppresses per-request EMF lines.
	DisableMetrics bool
}

// NewRouter builds the API mux wrapped in the middleware chain:
// request ID → logging → recovery → metrics → env status → CORS → routes.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handler
	limit := func(next http.Handler) http.Handler {
		if cfg.RateLimiter == nil {
			return next
		}
		return cfg.RateLimiter.Middleware(next)
	}

	mux := http.NewServeMux()
	mux.Handle(routeEnhance, limit(http.HandlerFunc(h.handleEnhance)))
	mux.Handle(routeContact, limit(http.HandlerFunc(h.handleContact)))
	mux.HandleFunc(routeHealth, h.handleHealth)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusNotFound, "not found")
	})

	var handler http.Handler = mux
	handler = withCORS(cfg.AllowedOrigins, cfg.AllowLocalhost)(handler)
	handler = withEnvStatus(cfg.EnvVars, cfg.LookupEnv)(handler)
	if !cfg.DisableMetrics {
		handler = withMetrics(handler)
	}
	handler = withRecovery(handler)
	handler = withLogging(handler)
	handler = withRequestID(handler)
	return handler
}
