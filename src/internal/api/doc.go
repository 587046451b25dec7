// Package api implements the request dispatch path of hostgate.
//
// A request flows through three steps, always in this order:
//
//  1. Access check: the client identifier is looked up in the access policy.
//     Banned clients get 401 and no route is resolved. With WithLimiter,
//     clients over their rate get 429 next.
//  2. Dispatch: the RouteTable resolves method and path to the first matching
//     route. No match gives 404. A handler error or panic gives 500 and the
//     server keeps serving.
//  3. Interception: the Interceptor sees an Outcome for every request (by
//     default LogInterceptor writes an access line) before the response is
//     written. It cannot modify the response.
//
// # Route patterns
//
// Patterns are anchored regular expressions. Positional groups become
// Request.Captures; `{name}` and `{name:regex}` are named groups available via
// Request.Param:
//
//	rt := api.NewRouteTable()
//	rt.Get(`/lists/(\d+)`, func(res *api.Response, req *api.Request) error {
//	    res.SetContent(req.Capture(0), "text/plain")
//	    return nil
//	})
//	rt.Get(`/users/{id:\d+}`, getUser)
//
// # Transport
//
// NewRouter mounts a Pipeline behind chi with request ID middleware and,
// optionally, chi's RealIP for deployments behind a reverse proxy.
package api
