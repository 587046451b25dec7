package api

import (
	"bytes"
	"net/http"
)

// Request is an inbound request as seen by a Handler.
type Request struct {
	*http.Request

	// RemoteID is the client identifier checked against the access policy.
	RemoteID string
	// RequestID correlates the request with its access log line.
	RequestID string
	// Captures holds the pattern's groups in order.
	Captures []string

	params map[string]string
}

// Capture returns the i-th group of the matched pattern, or "" if absent.
func (r *Request) Capture(i int) string {
	if i < 0 || i >= len(r.Captures) {
		return ""
	}
	return r.Captures[i]
}

// Param returns a named group ({name} or (?P<name>...)), or "" if absent.
func (r *Request) Param(name string) string {
	return r.params[name]
}

// Response buffers a handler's output so the pipeline can discard it when the
// handler fails. It implements http.ResponseWriter, so helpers such as
// http.Redirect and WriteError work on it directly.
type Response struct {
	Status int

	header      http.Header
	body        bytes.Buffer
	wroteHeader bool
}

func newResponse() *Response {
	return &Response{Status: http.StatusOK, header: make(http.Header)}
}

func (r *Response) Header() http.Header {
	return r.header
}

// WriteHeader records the status code. Only the first call has effect.
func (r *Response) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.Status = code
	r.wroteHeader = true
}

func (r *Response) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(p)
}

// SetContent replaces the body and sets Content-Type.
func (r *Response) SetContent(body, contentType string) {
	r.body.Reset()
	r.body.WriteString(body)
	r.header.Set("Content-Type", contentType)
}

// Body returns the buffered body.
func (r *Response) Body() []byte {
	return r.body.Bytes()
}

// reset drops everything written so far.
func (r *Response) reset() {
	r.Status = http.StatusOK
	r.header = make(http.Header)
	r.body.Reset()
	r.wroteHeader = false
}

// flush copies the buffered response to w.
func (r *Response) flush(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range r.header {
		dst[k] = append([]string(nil), v...)
	}
	w.WriteHeader(r.Status)
	_, _ = w.Write(r.body.Bytes())
}
