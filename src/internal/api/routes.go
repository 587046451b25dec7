package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
)

// Handler serves a matched request by filling res. A returned error (or a
// panic) discards whatever was written and turns into a 500 response.
type Handler func(res *Response, req *Request) error

// Route is a single registration in a RouteTable.
type Route struct {
	Method  string
	Pattern string

	re      *regexp.Regexp
	handler Handler
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method  string
	Pattern string
}

// Match is the result of a successful Resolve.
type Match struct {
	Route    *Route
	Captures []string
	Params   map[string]string
}

// RouteTable keeps routes per method in registration order. Resolution is
// first-match: a later pattern matching the same path is shadowed.
//
// Registration must finish before the table is served; Seal enforces that.
// After sealing the table is read-only and safe for concurrent Resolve calls.
type RouteTable struct {
	mu     sync.Mutex
	sealed atomic.Bool
	byVerb map[string][]*Route
	order  []*Route
	// frozen is the byVerb snapshot taken by Seal; resolve reads it without locking.
	frozen atomic.Pointer[map[string][]*Route]
}

func NewRouteTable() *RouteTable {
	return &RouteTable{byVerb: make(map[string][]*Route)}
}

// Register appends a route for method. Patterns are regular expressions
// anchored at both ends; positional groups such as `/lists/(\d+)` become
// Captures. `{name}` and `{name:regex}` are shorthand for named groups.
func (t *RouteTable) Register(method, pattern string, h Handler) error {
	if h == nil {
		return fmt.Errorf("nil handler for %s %s", method, pattern)
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return fmt.Errorf("empty method for pattern %s", pattern)
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	route := &Route{Method: method, Pattern: pattern, re: re, handler: h}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed.Load() {
		return fmt.Errorf("route table is sealed, cannot register %s %s", method, pattern)
	}
	t.byVerb[method] = append(t.byVerb[method], route)
	t.order = append(t.order, route)
	return nil
}

// MustRegister is like Register but panics on error.
func (t *RouteTable) MustRegister(method, pattern string, h Handler) {
	if err := t.Register(method, pattern, h); err != nil {
		panic(err)
	}
}

func (t *RouteTable) Get(pattern string, h Handler) {
	t.MustRegister(http.MethodGet, pattern, h)
}

func (t *RouteTable) Post(pattern string, h Handler) {
	t.MustRegister(http.MethodPost, pattern, h)
}

func (t *RouteTable) Put(pattern string, h Handler) {
	t.MustRegister(http.MethodPut, pattern, h)
}

func (t *RouteTable) Delete(pattern string, h Handler) {
	t.MustRegister(http.MethodDelete, pattern, h)
}

// Seal forbids further registration.
func (t *RouteTable) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed.Load() {
		return
	}

	snapshot := make(map[string][]*Route, len(t.byVerb))
	for method, routes := range t.byVerb {
		snapshot[method] = append([]*Route(nil), routes...)
	}
	t.frozen.Store(&snapshot)
	t.sealed.Store(true)
}

// Resolve returns the first route registered for method whose pattern matches
// path. HEAD falls back to GET routes when no HEAD route matches.
func (t *RouteTable) Resolve(method, path string) (*Match, bool) {
	method = strings.ToUpper(method)
	if m, ok := t.resolve(method, path); ok {
		return m, true
	}
	if method == http.MethodHead {
		return t.resolve(http.MethodGet, path)
	}
	return nil, false
}

func (t *RouteTable) resolve(method, path string) (*Match, bool) {
	var routes []*Route
	if snapshot := t.frozen.Load(); snapshot != nil {
		routes = (*snapshot)[method]
	} else {
		t.mu.Lock()
		routes = t.byVerb[method]
		t.mu.Unlock()
	}

	for _, route := range routes {
		groups := route.re.FindStringSubmatch(path)
		if groups == nil {
			continue
		}

		m := &Match{Route: route, Captures: groups[1:]}
		for i, name := range route.re.SubexpNames() {
			if name == "" {
				continue
			}
			if m.Params == nil {
				m.Params = make(map[string]string)
			}
			m.Params[name] = groups[i]
		}
		return m, true
	}

	return nil, false
}

// Routes lists registrations in the order they were made.
func (t *RouteTable) Routes() []RouteInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	infos := make([]RouteInfo, 0, len(t.order))
	for _, r := range t.order {
		infos = append(infos, RouteInfo{Method: r.Method, Pattern: r.Pattern})
	}
	return infos
}

// compilePattern expands {name} / {name:regex} into named groups and anchors
// the whole expression, top-level alternation included. Braces that do not start with an identifier (such as the
// quantifier in `\d{2}`) are left untouched.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^(?:")

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]

		if c == '\\' && i+1 < len(pattern) {
			sb.WriteByte(c)
			sb.WriteByte(pattern[i+1])
			i++
			continue
		}

		if c == '{' {
			if name, expr, end, ok := parseParam(pattern, i); ok {
				if expr == "" {
					expr = "[^/]+"
				}
				sb.WriteString("(?P<" + name + ">" + expr + ")")
				i = end
				continue
			}
		}

		sb.WriteByte(c)
	}

	sb.WriteString(")$")
	return regexp.Compile(sb.String())
}

// parseParam reads a {name} or {name:expr} starting at pattern[start] == '{'.
// end is the index of the closing brace.
func parseParam(pattern string, start int) (name, expr string, end int, ok bool) {
	i := start + 1
	for i < len(pattern) && isIdentByte(pattern[i], i == start+1) {
		i++
	}
	if i == start+1 || i >= len(pattern) {
		return "", "", 0, false
	}
	name = pattern[start+1 : i]

	if pattern[i] == '}' {
		return name, "", i, true
	}
	if pattern[i] != ':' {
		return "", "", 0, false
	}

	depth := 0
	for j := i + 1; j < len(pattern); j++ {
		switch pattern[j] {
		case '\\':
			j++
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return name, pattern[i+1 : j], j, true
			}
			depth--
		}
	}
	return "", "", 0, false
}

func isIdentByte(c byte, first bool) bool {
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	return !first && c >= '0' && c <= '9'
}
