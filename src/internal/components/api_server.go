package components

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maksimkurb/hostgate/src/internal/access"
	"github.com/maksimkurb/hostgate/src/internal/config"
	apperrors "github.com/maksimkurb/hostgate/src/internal/errors"
	"github.com/maksimkurb/hostgate/src/internal/log"
)

// HTTPServerConfig holds transport settings for HTTPServer.
type HTTPServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// ShutdownTimeout bounds the graceful drain in Stop. Zero waits forever.
	ShutdownTimeout time.Duration
	// ReusePort sets SO_REUSEPORT on the listening socket.
	ReusePort bool
}

// HTTPServerConfigFromAppConfig converts the [server] section.
func HTTPServerConfigFromAppConfig(cfg *config.ServerConfig) HTTPServerConfig {
	return HTTPServerConfig{
		ReadTimeout:     cfg.ReadTimeout(),
		WriteTimeout:    cfg.WriteTimeout(),
		IdleTimeout:     cfg.IdleTimeout(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
		ReusePort:       cfg.ReusePort,
	}
}

// HTTPServer runs a handler on a listening socket under an explicit state
// machine. Transitions are serialized by mu; the current state can be read
// without locking.
type HTTPServer struct {
	host    *access.Host
	cfg     HTTPServerConfig
	handler http.Handler

	mu         sync.Mutex
	state      atomic.Int32
	startErr   error
	httpServer *http.Server
	listener   net.Listener
	serveDone  chan struct{}

	ready chan struct{} // closed when Running is reached or start fails
	done  chan struct{} // closed when Stopped is reached
}

// NewHTTPServer creates a server in the idle state.
func NewHTTPServer(host *access.Host, cfg HTTPServerConfig) *HTTPServer {
	return &HTTPServer{
		host:  host,
		cfg:   cfg,
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (a *HTTPServer) Name() string {
	return "HTTP server"
}

// SetHandler installs the request handler. It is only allowed while idle, so
// handlers can be built with a reference to the server itself.
func (a *HTTPServer) SetHandler(h http.Handler) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if st := a.State(); st != StateIdle {
		return apperrors.NewAlreadyStartedError(st.String())
	}
	a.handler = h
	return nil
}

// Start binds the listening socket and serves on a separate goroutine. It
// returns once the socket is bound. Only valid from the idle state.
func (a *HTTPServer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if st := a.State(); st != StateIdle {
		return apperrors.NewAlreadyStartedError(st.String())
	}
	if a.handler == nil {
		return apperrors.NewConfigError("no handler installed", nil)
	}

	a.setState(StateStarting)
	addr := a.host.Address()
	log.Infof("Starting %s on %s", a.Name(), addr)

	ln, err := listen(addr, a.cfg.ReusePort)
	if err != nil {
		a.startErr = apperrors.NewNotRunningError(fmt.Sprintf("failed to listen on %s", addr), err)
		a.setState(StateStopped)
		close(a.ready)
		close(a.done)
		return a.startErr
	}

	a.listener = ln
	a.httpServer = &http.Server{
		Handler:      a.handler,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
		ErrorLog:     stdlog.New(httpErrorLog{}, "", 0),
	}
	a.serveDone = make(chan struct{})

	go a.serve(a.httpServer, ln, a.serveDone)

	a.setState(StateRunning)
	close(a.ready)
	log.Infof("%s listening on http://%s", a.Name(), ln.Addr())
	return nil
}

func (a *HTTPServer) serve(srv *http.Server, ln net.Listener, serveDone chan struct{}) {
	defer close(serveDone)

	err := srv.Serve(ln)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}

	log.Errorf("%s error: %v", a.Name(), err)
	// The accept loop died on its own; move to Stopped so supervisors notice.
	go func() {
		if stopErr := a.Stop(); stopErr != nil {
			log.Errorf("Error stopping %s: %v", a.Name(), stopErr)
		}
	}()
}

// Stop stops accepting connections, lets in-flight requests finish (bounded
// by ShutdownTimeout, then remaining connections are closed) and waits for
// the serving goroutine to exit. Calling it while idle or stopped is a no-op.
//
// Stop must not be called synchronously from a request handler of this
// server: it waits for that very request.
func (a *HTTPServer) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch st := a.State(); st {
	case StateIdle, StateStopped:
		return nil
	case StateRunning:
	default:
		return apperrors.NewInternalError(fmt.Sprintf("unexpected state %s in Stop", st), nil)
	}

	a.setState(StateStopping)
	log.Infof("Stopping %s...", a.Name())

	ctx := context.Background()
	if a.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
		defer cancel()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.Warnf("Graceful shutdown of %s did not finish: %v; closing remaining connections", a.Name(), err)
		if closeErr := a.httpServer.Close(); closeErr != nil {
			log.Errorf("Error closing %s: %v", a.Name(), closeErr)
		}
	}

	<-a.serveDone

	a.setState(StateStopped)
	close(a.done)
	log.Infof("%s stopped", a.Name())
	return nil
}

// Close is the teardown path: it stops a running server and waits for the
// serving goroutine, like Stop.
func (a *HTTPServer) Close() error {
	return a.Stop()
}

// WaitUntilReady blocks until the server is running. It fails with a
// NOT_RUNNING error when the server was never started, failed to start or has
// already stopped, and with ctx.Err() when ctx ends first. Start must
// happen-before the call; a caller racing Start may see NOT_RUNNING.
func (a *HTTPServer) WaitUntilReady(ctx context.Context) error {
	if a.State() == StateIdle {
		return apperrors.NewNotRunningError("server was not started", nil)
	}

	select {
	case <-a.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	if a.startErr != nil {
		return a.startErr
	}
	if st := a.State(); st != StateRunning {
		return apperrors.NewNotRunningError(fmt.Sprintf("server is %s", st), nil)
	}
	return nil
}

// IsRunning reports whether the state is exactly Running. It never blocks.
func (a *HTTPServer) IsRunning() bool {
	return a.State() == StateRunning
}

func (a *HTTPServer) State() State {
	return State(a.state.Load())
}

// Done is closed once the server reaches Stopped.
func (a *HTTPServer) Done() <-chan struct{} {
	return a.done
}

// Addr returns the bound address, or nil before a successful Start.
func (a *HTTPServer) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

func (a *HTTPServer) setState(s State) {
	prev := State(a.state.Swap(int32(s)))
	log.Debugf("%s: %s -> %s", a.Name(), prev, s)
}

func listen(addr string, reusePort bool) (net.Listener, error) {
	lc := net.ListenConfig{}
	if reusePort {
		lc.Control = reusePortControl
	}
	return lc.Listen(context.Background(), "tcp", addr)
}

// httpErrorLog forwards net/http's internal errors (TLS handshakes, broken
// connections, recovered panics) to the application log.
type httpErrorLog struct{}

func (httpErrorLog) Write(p []byte) (int, error) {
	log.Warnf("[http] %s", strings.TrimSpace(string(p)))
	return len(p), nil
}
