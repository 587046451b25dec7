package api

import (
	"fmt"

	"github.com/maksimkurb/hostgate/src/internal/log"
)

// LogInterceptor writes one access line per request: INFO for success,
// WARN for rejected or unmatched requests, ERROR for handler failures.
func LogInterceptor(o Outcome) {
	line := fmt.Sprintf("[access] request_id=%s remote=%s method=%s path=%q status=%d stage=%s duration=%v",
		o.RequestID, o.RemoteID, o.Method, o.Path, o.Status, o.Stage, o.Duration)

	switch {
	case o.Err != nil:
		log.Errorf("%s error=%q", line, o.Err.Error())
	case o.Status >= 400:
		log.Warnf("%s", line)
	default:
		log.Infof("%s", line)
	}
}

// ChainInterceptors runs each interceptor in order. A panic in one does not
// prevent the others from running.
func ChainInterceptors(interceptors ...Interceptor) Interceptor {
	return func(o Outcome) {
		for _, ic := range interceptors {
			if ic == nil {
				continue
			}
			func() {
				defer func() { _ = recover() }()
				ic(o)
			}()
		}
	}
}
