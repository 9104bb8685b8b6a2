package handler

import (
	"context"
	"net/http"

	"github.com/msomdec/skillmatch-auth/internal/metrics"
	"github.com/msomdec/skillmatch-auth/internal/service"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Auth    *service.AuthService
	Limiter *service.TokenBucket
	Metrics *metrics.Metrics
	Ping    func(context.Context) error
}

// routePrefixes mounts every route both at the root and under /api.
var routePrefixes = []string{"", "/api"}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, deps Deps) {
	authHandler := NewAuthHandler(deps.Auth, deps.Metrics)
	storageHandler := NewStorageHandler(deps.Auth)

	throttle := func(h http.HandlerFunc) http.Handler {
		if deps.Limiter == nil {
			return h
		}
		return RateLimit(deps.Limiter, deps.Metrics, h)
	}

	for _, p := range routePrefixes {
		mux.Handle("POST "+p+"/auth/register", throttle(authHandler.HandleRegister))
		mux.Handle("POST "+p+"/auth/login", throttle(authHandler.HandleLogin))
		mux.HandleFunc("GET "+p+"/auth/me", authHandler.HandleMe)
		mux.HandleFunc("POST "+p+"/auth/refresh", authHandler.HandleRefresh)
		mux.HandleFunc("POST "+p+"/auth/logout", authHandler.HandleLogout)
		mux.Handle("POST "+p+"/auth/update-profile", RequireAuth(deps.Auth, http.HandlerFunc(authHandler.HandleUpdateProfile)))
		mux.HandleFunc("GET "+p+"/storage/{key...}", storageHandler.HandlePhoto)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)
	if deps.Ping != nil {
		mux.Handle("GET /readyz", HandleReadyz(deps.Ping))
	}
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}
}

// NewRouter builds the mux and wraps it in the middleware chain.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)

	var h http.Handler = SecurityHeaders(mux)
	if deps.Metrics != nil {
		h = Instrument(deps.Metrics, h)
	}
	h = LogRequests(h)
	h = Recover(h)
	return RequestID(h)
}
