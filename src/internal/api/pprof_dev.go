//go:build dev

package api

import (
	"net/http"
	"net/http/pprof"
)

// registerDebugRoutes exposes net/http/pprof through the route table, so
// banned clients cannot reach it either.
func registerDebugRoutes(rt *RouteTable) error {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{`/debug/pprof/cmdline`, pprof.Cmdline},
		{`/debug/pprof/profile`, pprof.Profile},
		{`/debug/pprof/symbol`, pprof.Symbol},
		{`/debug/pprof/trace`, pprof.Trace},
		{`/debug/pprof/.*`, pprof.Index},
	}

	for _, r := range routes {
		h := r.handler
		if err := rt.Register(http.MethodGet, r.pattern, func(res *Response, req *Request) error {
			h(res, req.Request)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}
