package core

import (
	"fmt"
	"net/http"

	"github.com/maksimkurb/hostgate/src/internal/access"
	"github.com/maksimkurb/hostgate/src/internal/api"
	"github.com/maksimkurb/hostgate/src/internal/components"
	"github.com/maksimkurb/hostgate/src/internal/config"
)

// AppDependencies is a dependency injection container that holds all application dependencies.
//
// The HTTP server is handed to the /stop route as an api.Stopper at
// construction time, so no handler needs a global server reference.
//
// Usage:
//
//	deps, err := core.NewAppDependencies(cfg, core.AppConfig{})
//	if err != nil {
//	    return err
//	}
//	if err := deps.Server().Start(); err != nil {
//	    return err
//	}
type AppDependencies struct {
	host     *access.Host
	routes   *api.RouteTable
	pipeline *api.Pipeline
	handler  http.Handler
	server   *components.HTTPServer
}

// AppConfig holds optional overrides for creating application dependencies.
type AppConfig struct {
	// Interceptor replaces api.LogInterceptor when set.
	Interceptor api.Interceptor

	// ExtraRoutes registers additional routes after the built-in ones.
	ExtraRoutes func(rt *api.RouteTable) error
}

// NewAppDependencies builds the access policy, route table, pipeline and HTTP
// server from cfg. cfg should already be validated; the port range is checked
// again when the Host is built.
func NewAppDependencies(cfg *config.Config, appCfg AppConfig) (*AppDependencies, error) {
	host, err := access.NewHostFromSource(cfg)
	if err != nil {
		return nil, err
	}

	server := components.NewHTTPServer(host, components.HTTPServerConfigFromAppConfig(cfg.Server))

	routes := api.NewRouteTable()
	if err := api.RegisterBuiltinRoutes(routes, cfg.Pages, server); err != nil {
		return nil, fmt.Errorf("failed to register built-in routes: %w", err)
	}
	if appCfg.ExtraRoutes != nil {
		if err := appCfg.ExtraRoutes(routes); err != nil {
			return nil, fmt.Errorf("failed to register routes: %w", err)
		}
	}

	var opts []api.PipelineOption
	if cfg.Server.RateLimitRPS > 0 {
		opts = append(opts, api.WithLimiter(access.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)))
	}

	pipeline := api.NewPipeline(host, routes, appCfg.Interceptor, opts...)
	handler := api.NewRouter(pipeline, api.RouterOptions{TrustProxyHeaders: cfg.Server.TrustProxyHeaders})

	if err := server.SetHandler(handler); err != nil {
		return nil, err
	}

	return &AppDependencies{
		host:     host,
		routes:   routes,
		pipeline: pipeline,
		handler:  handler,
		server:   server,
	}, nil
}

// Host returns the access policy and listen address.
func (d *AppDependencies) Host() *access.Host {
	return d.host
}

// Routes returns the sealed route table.
func (d *AppDependencies) Routes() *api.RouteTable {
	return d.routes
}

// Pipeline returns the request pipeline.
func (d *AppDependencies) Pipeline() *api.Pipeline {
	return d.pipeline
}

// Handler returns the full HTTP handler (chi router + pipeline).
func (d *AppDependencies) Handler() http.Handler {
	return d.handler
}

// Server returns the HTTP server lifecycle.
func (d *AppDependencies) Server() *components.HTTPServer {
	return d.server
}
