package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions controls the transport-level middleware.
type RouterOptions struct {
	// TrustProxyHeaders rewrites RemoteAddr from X-Real-IP / X-Forwarded-For
	// before the access check. Only enable behind a trusted reverse proxy.
	TrustProxyHeaders bool
}

// NewRouter mounts the pipeline behind chi so every method and path,
// including ones chi itself would reject, goes through the access check.
func NewRouter(p *Pipeline, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	if opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestID)

	r.Handle("/*", p)
	r.NotFound(p.ServeHTTP)
	r.MethodNotAllowed(p.ServeHTTP)

	return r
}
