package access

import (
	"net"
	"net/http"
)

// ClientID extracts the client identifier from r: the host part of
// RemoteAddr, or RemoteAddr itself when it has no port.
//
// Proxy headers are not consulted here. When they are trusted, chi's
// middleware.RealIP rewrites RemoteAddr before the request reaches this point.
func ClientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
