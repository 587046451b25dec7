package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/maksimkurb/hostgate/src/internal/access"
	"github.com/maksimkurb/hostgate/src/internal/errors"
)

// Stage is where a request's processing ended.
type Stage int

const (
	StageRejected Stage = iota // banned by the access policy
	StageNotFound              // no route matched
	StageHandled               // handler returned nil
	StageFailed                // handler returned an error or panicked
	StageThrottled             // over the per-client rate limit
)

func (s Stage) String() string {
	switch s {
	case StageRejected:
		return "rejected"
	case StageNotFound:
		return "not_found"
	case StageHandled:
		return "handled"
	case StageFailed:
		return "failed"
	case StageThrottled:
		return "throttled"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Outcome is the read-only summary handed to the Interceptor after dispatch.
type Outcome struct {
	RequestID string
	RemoteID  string
	Method    string
	Path      string
	Status    int
	Stage     Stage
	// Err is an *errors.Error with code HANDLER_FAILURE when Stage is StageFailed.
	Err      error
	Duration time.Duration
}

// Interceptor observes every finished request. It runs before the response is
// written, cannot change it, and a panic inside it is swallowed.
type Interceptor func(Outcome)

// Pipeline runs access check, route dispatch and interception for each
// request. It keeps no per-request state and may serve requests concurrently.
type Pipeline struct {
	policy      access.Policy
	limiter     access.Limiter
	routes      *RouteTable
	interceptor Interceptor
}

// PipelineOption configures optional Pipeline stages.
type PipelineOption func(*Pipeline)

// WithLimiter throttles clients that passed the ban check.
func WithLimiter(l access.Limiter) PipelineOption {
	return func(p *Pipeline) {
		p.limiter = l
	}
}

// NewPipeline seals routes. A nil policy lets everyone through; a nil
// interceptor defaults to LogInterceptor.
func NewPipeline(policy access.Policy, routes *RouteTable, interceptor Interceptor, opts ...PipelineOption) *Pipeline {
	if interceptor == nil {
		interceptor = LogInterceptor
	}
	routes.Seal()
	p := &Pipeline{
		policy:      policy,
		routes:      routes,
		interceptor: interceptor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := &Request{
		Request:   r,
		RemoteID:  access.ClientID(r),
		RequestID: RequestIDFromContext(r.Context()),
	}
	if req.RequestID == "" {
		req.RequestID = newRequestID(r)
	}

	res, outcome := p.Process(req)
	res.Header().Set(RequestIDHeader, req.RequestID)
	outcome.Duration = time.Since(start)

	p.intercept(outcome)
	res.flush(w)
}

// Process runs the access check and dispatch for req and returns the
// response to send. It never panics on handler failure.
func (p *Pipeline) Process(req *Request) (*Response, Outcome) {
	res := newResponse()
	outcome := Outcome{
		RequestID: req.RequestID,
		RemoteID:  req.RemoteID,
		Method:    req.Method,
		Path:      req.URL.Path,
	}

	if p.policy != nil && p.policy.IsBanned(req.RemoteID) {
		WriteUnauthorized(res, "Access denied")
		outcome.Stage = StageRejected
		outcome.Status = res.Status
		return res, outcome
	}

	if p.limiter != nil && !p.limiter.Allow(req.RemoteID) {
		WriteTooManyRequests(res, "Rate limit exceeded")
		outcome.Stage = StageThrottled
		outcome.Status = res.Status
		return res, outcome
	}

	match, ok := p.routes.Resolve(req.Method, req.URL.Path)
	if !ok {
		WriteNotFound(res, "Route "+req.URL.Path)
		outcome.Stage = StageNotFound
		outcome.Status = res.Status
		return res, outcome
	}

	req.Captures = match.Captures
	req.params = match.Params

	err := invoke(match.Route.handler, res, req)
	if err == nil && (res.Status < 100 || res.Status > 599) {
		err = fmt.Errorf("invalid status code %d", res.Status)
	}
	if err != nil {
		res.reset()
		WriteInternalError(res, "Internal server error")
		outcome.Stage = StageFailed
		outcome.Err = errors.NewHandlerFailure(fmt.Sprintf("%s %s", match.Route.Method, match.Route.Pattern), err)
	} else {
		outcome.Stage = StageHandled
	}

	outcome.Status = res.Status
	return res, outcome
}

// invoke calls h and converts a panic into an error.
func invoke(h Handler, res *Response, req *Request) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return h(res, req)
}

func (p *Pipeline) intercept(o Outcome) {
	defer func() {
		_ = recover()
	}()
	p.interceptor(o)
}
