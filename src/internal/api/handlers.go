package api

import (
	"fmt"
	"net/http"

	"github.com/valyala/fasttemplate"

	"github.com/maksimkurb/hostgate/src/internal/config"
	"github.com/maksimkurb/hostgate/src/internal/log"
)

// Stopper is the lifecycle operation reachable from the /stop route.
type Stopper interface {
	Stop() error
}

// RegisterBuiltinRoutes adds the routes every hostgate instance serves:
//
//	GET /              rendered index page
//	GET /lists/(\d+)   echoes the captured number
//	GET /stop          stops the server, then redirects
//	GET /health        liveness probe
//
// Builds with the dev tag also get GET /debug/pprof/*.
//
// stopper may be nil, in which case /stop only redirects.
func RegisterBuiltinRoutes(rt *RouteTable, pages *config.PagesConfig, stopper Stopper) error {
	if pages == nil {
		pages = config.DefaultConfig().Pages
	}

	index, err := fasttemplate.NewTemplate(pages.IndexTemplate, "{{", "}}")
	if err != nil {
		return fmt.Errorf("invalid index template: %w", err)
	}

	routes := []struct {
		pattern string
		handler Handler
	}{
		{`/`, handleIndex(index, pages.Greeting)},
		{`/lists/(\d+)`, handleListsGet},
		{`/stop`, handleStop(stopper, pages.StopRedirect)},
		{`/health`, handleHealth},
	}

	for _, r := range routes {
		if err := rt.Register(http.MethodGet, r.pattern, r.handler); err != nil {
			return err
		}
	}
	return registerDebugRoutes(rt)
}

func handleIndex(tmpl *fasttemplate.Template, greeting string) Handler {
	return func(res *Response, req *Request) error {
		body := tmpl.ExecuteString(map[string]interface{}{
			"greeting":   greeting,
			"remote":     req.RemoteID,
			"request_id": req.RequestID,
		})
		res.SetContent(body, "text/html; charset=utf-8")
		return nil
	}
}

func handleListsGet(res *Response, req *Request) error {
	res.SetContent(req.Capture(0), "text/plain; charset=utf-8")
	return nil
}

// handleStop stops the server from a separate goroutine: Stop drains
// in-flight requests, and this one has to finish first.
func handleStop(stopper Stopper, location string) Handler {
	return func(res *Response, req *Request) error {
		if stopper != nil {
			log.Infof("Stop requested by %s (request %s)", req.RemoteID, req.RequestID)
			go func() {
				if err := stopper.Stop(); err != nil {
					log.Errorf("Failed to stop server: %v", err)
				}
			}()
		}
		res.Header().Set("Connection", "close")
		http.Redirect(res, req.Request, location, http.StatusFound)
		return nil
	}
}

func handleHealth(res *Response, req *Request) error {
	res.SetContent("OK", "text/plain; charset=utf-8")
	return nil
}
