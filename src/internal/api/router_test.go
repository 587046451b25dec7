package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maksimkurb/hostgate/src/internal/log"
)

func TestRouter_AllTrafficGoesThroughPipeline(t *testing.T) {
	rt := NewRouteTable()
	rt.Get(`/`, named("index"))
	rec := &recorder{}
	h := NewRouter(NewPipeline(newTestHost(t, "10.0.0.66"), rt, rec.intercept), RouterOptions{})

	resp := serve(h, http.MethodGet, "/", "192.0.2.1:1")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "index", resp.Body.String())
	assert.True(t, strings.HasPrefix(resp.Header().Get(RequestIDHeader), "req_"))
	assert.Equal(t, resp.Header().Get(RequestIDHeader), rec.last(t).RequestID)

	resp = serve(h, "PROPFIND", "/", "10.0.0.66:1")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = serve(h, "PROPFIND", "/", "192.0.2.1:1")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = serve(h, http.MethodGet, "/deep/path/here", "192.0.2.1:1")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRouter_ProxyHeaders(t *testing.T) {
	indexRoutes := func() *RouteTable {
		rt := NewRouteTable()
		rt.Get(`/`, named("index"))
		return rt
	}

	direct := NewRouter(NewPipeline(newTestHost(t, "10.0.0.66"), indexRoutes(), func(Outcome) {}), RouterOptions{})
	proxied := NewRouter(NewPipeline(newTestHost(t, "10.0.0.66"), indexRoutes(), func(Outcome) {}), RouterOptions{TrustProxyHeaders: true})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:3000"
	req.Header.Set("X-Forwarded-For", "10.0.0.66, 127.0.0.1")

	resp := httptest.NewRecorder()
	direct.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code, "forwarded header must be ignored unless trusted")

	resp = httptest.NewRecorder()
	proxied.ServeHTTP(resp, req.Clone(req.Context()))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogInterceptor(t *testing.T) {
	var buf bytes.Buffer
	prev := log.SetOutput(&buf)
	defer log.SetOutput(prev)

	LogInterceptor(Outcome{RequestID: "r1", RemoteID: "192.0.2.1", Method: "GET", Path: "/", Status: 200, Stage: StageHandled})
	LogInterceptor(Outcome{RequestID: "r2", RemoteID: "10.0.0.66", Method: "GET", Path: "/", Status: 401, Stage: StageRejected})
	LogInterceptor(Outcome{RequestID: "r3", RemoteID: "192.0.2.1", Method: "GET", Path: "/x", Status: 500, Stage: StageFailed, Err: assert.AnError})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "[INF]")
	assert.Contains(t, lines[0], `request_id=r1 remote=192.0.2.1 method=GET path="/" status=200 stage=handled`)
	assert.Contains(t, lines[1], "[WRN]")
	assert.Contains(t, lines[1], "remote=10.0.0.66")
	assert.Contains(t, lines[1], "status=401 stage=rejected")
	assert.Contains(t, lines[2], "[ERR]")
	assert.Contains(t, lines[2], "error=")
}

func TestChainInterceptors(t *testing.T) {
	var got []string
	chain := ChainInterceptors(
		func(o Outcome) { got = append(got, "a") },
		nil,
		func(o Outcome) { panic("b") },
		func(o Outcome) { got = append(got, "c:"+o.Path) },
	)

	assert.NotPanics(t, func() { chain(Outcome{Path: "/p"}) })
	assert.Equal(t, []string{"a", "c:/p"}, got)
}

func TestRequestIDValidation(t *testing.T) {
	assert.True(t, isValidRequestID("abc-123"))
	assert.False(t, isValidRequestID(""))
	assert.False(t, isValidRequestID("has space"))
	assert.False(t, isValidRequestID(strings.Repeat("x", maxRequestIDLength+1)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id")
	assert.True(t, strings.HasPrefix(newRequestID(req), "req_"))
}
