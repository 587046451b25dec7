package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maksimkurb/hostgate/src/internal/access"
	apperrors "github.com/maksimkurb/hostgate/src/internal/errors"
)

type recorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *recorder) intercept(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recorder) last(t *testing.T) Outcome {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.outcomes)
	return r.outcomes[len(r.outcomes)-1]
}

func newTestHost(t *testing.T, banned ...string) *access.Host {
	t.Helper()
	host, err := access.NewHost("127.0.0.1", 8080, banned)
	require.NoError(t, err)
	return host
}

func serve(h http.Handler, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, body string) APIError {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return resp.Error
}

func TestPipeline_BannedClientNeverReachesHandler(t *testing.T) {
	var calls atomic.Int32
	rt := NewRouteTable()
	counting := func(res *Response, req *Request) error {
		calls.Add(1)
		res.SetContent("ok", "text/plain")
		return nil
	}
	rt.Get(`/`, counting)
	rt.Post(`/lists/(\d+)`, counting)

	rec := &recorder{}
	p := NewPipeline(newTestHost(t, "10.0.0.66"), rt, rec.intercept)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodPost, "/lists/1"},
		{http.MethodGet, "/does-not-exist"},
		{"PROPFIND", "/"},
	} {
		resp := serve(p, tc.method, tc.path, "10.0.0.66:5555")
		assert.Equal(t, http.StatusUnauthorized, resp.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, ErrCodeUnauthorized, decodeError(t, resp.Body.String()).Code)
		assert.Equal(t, StageRejected, rec.last(t).Stage)
		assert.Equal(t, "10.0.0.66", rec.last(t).RemoteID)
	}
	assert.Equal(t, int32(0), calls.Load())

	resp := serve(p, http.MethodGet, "/", "10.0.0.67:5555")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPipeline_FirstRegisteredHandlerAnswers(t *testing.T) {
	rt := NewRouteTable()
	rt.Get(`/same`, named("earlier"))
	rt.Get(`/s(a)me`, named("later"))
	p := NewPipeline(nil, rt, func(Outcome) {})

	resp := serve(p, http.MethodGet, "/same", "192.0.2.1:1")
	assert.Equal(t, "earlier", resp.Body.String())
}

func TestPipeline_CaptureEcho(t *testing.T) {
	rt := NewRouteTable()
	rt.Get(`/lists/(\d+)`, func(res *Response, req *Request) error {
		res.SetContent(req.Capture(0), "text/plain")
		return nil
	})
	p := NewPipeline(nil, rt, func(Outcome) {})

	resp := serve(p, http.MethodGet, "/lists/42", "192.0.2.1:1")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "42", resp.Body.String())
}

func TestPipeline_UnknownRoute(t *testing.T) {
	rt := NewRouteTable()
	rt.Get(`/`, named("index"))
	rec := &recorder{}
	p := NewPipeline(nil, rt, rec.intercept)

	resp := serve(p, http.MethodGet, "/missing", "192.0.2.1:1")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, ErrCodeNotFound, decodeError(t, resp.Body.String()).Code)
	assert.Equal(t, StageNotFound, rec.last(t).Stage)

	resp = serve(p, http.MethodPost, "/", "192.0.2.1:1")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPipeline_HandlerFailureIsContained(t *testing.T) {
	boom := errors.New("boom")
	rt := NewRouteTable()
	rt.Get(`/panic`, func(res *Response, req *Request) error {
		res.Header().Set("X-Partial", "yes")
		_, _ = res.Write([]byte("partial"))
		panic("handler exploded")
	})
	rt.Get(`/error`, func(res *Response, req *Request) error {
		res.SetContent("half written", "text/plain")
		return boom
	})
	rt.Get(`/ok`, named("fine"))

	rec := &recorder{}
	p := NewPipeline(nil, rt, rec.intercept)

	resp := serve(p, http.MethodGet, "/panic", "192.0.2.1:1")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Empty(t, resp.Header().Get("X-Partial"))
	assert.NotContains(t, resp.Body.String(), "partial")
	assert.Equal(t, ErrCodeInternalError, decodeError(t, resp.Body.String()).Code)
	out := rec.last(t)
	assert.Equal(t, StageFailed, out.Stage)
	assert.ErrorIs(t, out.Err, apperrors.ErrHandlerFailure)
	assert.Contains(t, out.Err.Error(), "handler exploded")

	resp = serve(p, http.MethodGet, "/error", "192.0.2.1:1")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.ErrorIs(t, rec.last(t).Err, boom)

	resp = serve(p, http.MethodGet, "/ok", "192.0.2.1:1")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "fine", resp.Body.String())
}

func TestPipeline_InvalidStatusIsHandlerFailure(t *testing.T) {
	rt := NewRouteTable()
	rt.Get(`/low`, func(res *Response, req *Request) error {
		res.WriteHeader(42)
		_, _ = res.Write([]byte("never sent"))
		return nil
	})
	rt.Get(`/zero`, func(res *Response, req *Request) error {
		res.Status = 0
		return nil
	})
	rt.Get(`/high`, func(res *Response, req *Request) error {
		res.WriteHeader(600)
		return nil
	})

	rec := &recorder{}
	p := NewPipeline(nil, rt, rec.intercept)

	for _, path := range []string{"/low", "/zero", "/high"} {
		var resp *httptest.ResponseRecorder
		require.NotPanics(t, func() { resp = serve(p, http.MethodGet, path, "192.0.2.1:1") }, path)
		assert.Equal(t, http.StatusInternalServerError, resp.Code, path)
		assert.NotContains(t, resp.Body.String(), "never sent")
		assert.Equal(t, ErrCodeInternalError, decodeError(t, resp.Body.String()).Code)

		out := rec.last(t)
		assert.Equal(t, StageFailed, out.Stage, path)
		assert.Equal(t, http.StatusInternalServerError, out.Status, path)
		assert.ErrorIs(t, out.Err, apperrors.ErrHandlerFailure)
		assert.Contains(t, out.Err.Error(), "invalid status code")
	}
}

func TestPipeline_InterceptorSeesEveryRequestAfterDispatch(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	rt := NewRouteTable()
	rt.Get(`/`, func(res *Response, req *Request) error {
		record("handler")
		return nil
	})
	policy := policyFunc(func(id string) bool {
		record("policy")
		return id == "203.0.113.9"
	})
	p := NewPipeline(policy, rt, func(o Outcome) {
		record("intercept:" + o.Stage.String())
	})

	serve(p, http.MethodGet, "/", "192.0.2.1:1")
	serve(p, http.MethodGet, "/nope", "192.0.2.1:1")
	serve(p, http.MethodGet, "/", "203.0.113.9:1")

	assert.Equal(t, []string{
		"policy", "handler", "intercept:handled",
		"policy", "intercept:not_found",
		"policy", "intercept:rejected",
	}, events)
}

func TestPipeline_InterceptorCannotAffectResponse(t *testing.T) {
	rt := NewRouteTable()
	rt.Get(`/`, named("index"))
	p := NewPipeline(nil, rt, func(o Outcome) {
		o.Status = http.StatusTeapot
		panic("logging broke")
	})

	resp := serve(p, http.MethodGet, "/", "192.0.2.1:1")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "index", resp.Body.String())
}

func TestPipeline_OutcomeFields(t *testing.T) {
	rt := NewRouteTable()
	rt.Get(`/lists/(\d+)`, named("x"))
	rec := &recorder{}
	p := NewPipeline(nil, rt, rec.intercept)

	req := httptest.NewRequest(http.MethodGet, "/lists/5?q=1", nil)
	req.RemoteAddr = "198.51.100.4:4444"
	req.Header.Set(RequestIDHeader, "trace-abc")
	resp := httptest.NewRecorder()
	p.ServeHTTP(resp, req)

	out := rec.last(t)
	assert.Equal(t, "trace-abc", out.RequestID)
	assert.Equal(t, "198.51.100.4", out.RemoteID)
	assert.Equal(t, http.MethodGet, out.Method)
	assert.Equal(t, "/lists/5", out.Path)
	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, "trace-abc", resp.Header().Get(RequestIDHeader))
}

func TestPipeline_ConcurrentRequests(t *testing.T) {
	rt := NewRouteTable()
	rt.Get(`/lists/(\d+)`, func(res *Response, req *Request) error {
		res.SetContent(req.Capture(0), "text/plain")
		return nil
	})
	p := NewPipeline(newTestHost(t, "10.9.9.9"), rt, func(Outcome) {})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			path := "/lists/" + strings.Repeat("1", n%5+1)
			resp := serve(p, http.MethodGet, path, "192.0.2.1:1")
			assert.Equal(t, http.StatusOK, resp.Code)
			assert.Equal(t, strings.TrimPrefix(path, "/lists/"), resp.Body.String())
		}(i)
	}
	wg.Wait()
}

type policyFunc func(string) bool

func (f policyFunc) IsBanned(id string) bool { return f(id) }

type limiterFunc func(string) bool

func (f limiterFunc) Allow(id string) bool { return f(id) }

func TestPipeline_RateLimitAfterBanCheck(t *testing.T) {
	var consulted []string
	limiter := limiterFunc(func(id string) bool {
		consulted = append(consulted, id)
		return id != "10.0.0.9"
	})

	var calls atomic.Int32
	rt := NewRouteTable()
	rt.Get(`/`, func(res *Response, req *Request) error {
		calls.Add(1)
		return nil
	})
	rec := &recorder{}
	p := NewPipeline(newTestHost(t, "10.0.0.66"), rt, rec.intercept, WithLimiter(limiter))

	resp := serve(p, http.MethodGet, "/", "10.0.0.66:1")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = serve(p, http.MethodGet, "/", "10.0.0.9:1")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "1", resp.Header().Get("Retry-After"))
	assert.Equal(t, ErrCodeRateLimited, decodeError(t, resp.Body.String()).Code)
	assert.Equal(t, StageThrottled, rec.last(t).Stage)

	resp = serve(p, http.MethodGet, "/", "10.0.0.10:1")
	assert.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, []string{"10.0.0.9", "10.0.0.10"}, consulted)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPipeline_RealRateLimiter(t *testing.T) {
	rt := NewRouteTable()
	rt.Get(`/`, named("index"))
	p := NewPipeline(nil, rt, func(Outcome) {}, WithLimiter(access.NewRateLimiter(0.001, 2)))

	assert.Equal(t, http.StatusOK, serve(p, http.MethodGet, "/", "192.0.2.1:1").Code)
	assert.Equal(t, http.StatusOK, serve(p, http.MethodGet, "/", "192.0.2.1:2").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(p, http.MethodGet, "/", "192.0.2.1:3").Code)
	assert.Equal(t, http.StatusOK, serve(p, http.MethodGet, "/", "192.0.2.2:1").Code)
}
