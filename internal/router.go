package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

// Routing errors returned by Resolve.
var (
	// ErrRouteNotFound means no entry matches the path at all.
	ErrRouteNotFound = errors.New("router: no route matches")

	// ErrMethodMismatch means the path matches at least one entry but none
	// with the requested method. Callers render 405 with the Allow header.
	ErrMethodMismatch = errors.New("router: method not allowed")
)

// Router is the interface handlers use to declare routes.
type Router interface {
	// GET registers a handler for GET requests.
	GET(path string, h HandlerFunc, mw ...Middleware)

	// POST registers a handler for POST requests.
	POST(path string, h HandlerFunc, mw ...Middleware)

	// PUT registers a handler for PUT requests.
	PUT(path string, h HandlerFunc, mw ...Middleware)

	// PATCH registers a handler for PATCH requests.
	PATCH(path string, h HandlerFunc, mw ...Middleware)

	// DELETE registers a handler for DELETE requests.
	DELETE(path string, h HandlerFunc, mw ...Middleware)

	// HEAD registers a handler for HEAD requests.
	HEAD(path string, h HandlerFunc, mw ...Middleware)

	// OPTIONS registers a handler for OPTIONS requests.
	OPTIONS(path string, h HandlerFunc, mw ...Middleware)

	// Handle registers a handler for an arbitrary method.
	Handle(method, path string, h HandlerFunc, mw ...Middleware)

	// Group creates an inline route group. Routes declared inside fn share
	// the group's middleware but no pattern prefix.
	Group(fn func(r Router))

	// Route creates a route group with a pattern prefix.
	Route(pattern string, fn func(r Router))

	// Use appends middleware to this router scope. Applies only to routes
	// registered after the call.
	Use(mw ...Middleware)
}

// segment is one parsed pattern segment. A non-empty param means the segment
// is a `{name}` placeholder matching exactly one non-empty path segment.
type segment struct {
	literal string
	param   string
}

// routeEntry is one row of the route table. Immutable after registration.
type routeEntry struct {
	method     string
	pattern    string
	segments   []segment
	handler    HandlerFunc
	middleware []Middleware
}

// ResolvedRoute is the outcome of a successful Resolve: the matched entry
// plus placeholder captures. Created per request, discarded after dispatch.
type ResolvedRoute struct {
	Params     map[string]string
	Pattern    string
	handler    HandlerFunc
	middleware []Middleware
}

// routeTable holds the insertion-ordered route entries. The table is built
// once at startup and read-only afterwards, so Resolve needs no locking.
//
// Matching is deliberately first-match-wins in registration order, not
// most-specific-wins: route files read top to bottom and the table matches
// the same way. The cost is that `GET /sectors/{id}` registered before
// `GET /sectors/create` captures "create" as the id. registration-time
// ambiguity detection surfaces exactly these overlaps — as a logged warning
// by default, as a panic in strict mode.
type routeTable struct {
	logger  *slog.Logger
	entries []*routeEntry
	strict  bool
}

func newRouteTable(logger *slog.Logger, strict bool) *routeTable {
	return &routeTable{logger: logger, strict: strict}
}

// add parses, lints, and appends a route entry.
func (t *routeTable) add(method, pattern string, h HandlerFunc, mw []Middleware) {
	if h == nil {
		panic(fmt.Sprintf("router: nil handler for %s %s", method, pattern))
	}

	segs, err := parsePattern(pattern)
	if err != nil {
		panic(fmt.Sprintf("router: %v", err))
	}

	entry := &routeEntry{
		method:     strings.ToUpper(method),
		pattern:    pattern,
		segments:   segs,
		handler:    h,
		middleware: mw,
	}

	for _, existing := range t.entries {
		if existing.method != entry.method || !overlaps(existing.segments, segs) {
			continue
		}
		msg := fmt.Sprintf("route %s %s is shadowed by earlier %s %s",
			entry.method, pattern, existing.method, existing.pattern)
		if t.strict {
			panic("router: " + msg)
		}
		t.logger.Warn("ambiguous route registration", slog.String("detail", msg))
	}

	t.entries = append(t.entries, entry)
}

// Resolve maps (method, path) to a route. The path is normalized by
// stripping the trailing slash (except root). Entries are scanned in
// registration order; the first structural match with the right method wins
// and its placeholders are captured positionally.
//
// A path that matches only entries with other methods returns
// ErrMethodMismatch; Allow lists those methods for the 405 response.
func (t *routeTable) Resolve(method, path string) (*ResolvedRoute, []string, error) {
	method = strings.ToUpper(method)
	parts := splitPath(normalizePath(path))

	var allowed []string
	for _, e := range t.entries {
		params, ok := match(e.segments, parts)
		if !ok {
			continue
		}
		if e.method != method {
			if !contains(allowed, e.method) {
				allowed = append(allowed, e.method)
			}
			continue
		}
		return &ResolvedRoute{
			Pattern:    e.pattern,
			Params:     params,
			handler:    e.handler,
			middleware: e.middleware,
		}, nil, nil
	}

	if len(allowed) > 0 {
		sort.Strings(allowed)
		return nil, allowed, ErrMethodMismatch
	}
	return nil, nil, ErrRouteNotFound
}

// normalizePath strips the trailing slash except for root.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return strings.TrimRight(path, "/")
	}
	return path
}

func splitPath(path string) []string {
	if path == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

// parsePattern validates and parses a route pattern into segments.
// Placeholders are `{name}` taking a whole segment; nothing else is special.
func parsePattern(pattern string) ([]segment, error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, fmt.Errorf("pattern %q must start with /", pattern)
	}

	parts := splitPath(normalizePath(pattern))
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, p := range parts {
		if strings.HasPrefix(p, "{") || strings.HasSuffix(p, "}") {
			name := strings.TrimSuffix(strings.TrimPrefix(p, "{"), "}")
			if name == "" || !strings.HasPrefix(p, "{") || !strings.HasSuffix(p, "}") {
				return nil, fmt.Errorf("pattern %q has malformed placeholder %q", pattern, p)
			}
			if seen[name] {
				return nil, fmt.Errorf("pattern %q repeats placeholder %q", pattern, name)
			}
			seen[name] = true
			segs = append(segs, segment{param: name})
			continue
		}
		if p == "" {
			return nil, fmt.Errorf("pattern %q has an empty segment", pattern)
		}
		segs = append(segs, segment{literal: p})
	}
	return segs, nil
}

// match tests pattern segments against path parts and captures placeholders.
func match(segs []segment, parts []string) (map[string]string, bool) {
	if len(segs) != len(parts) {
		return nil, false
	}

	var params map[string]string
	for i, s := range segs {
		if s.param != "" {
			if parts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[s.param] = parts[i]
			continue
		}
		if s.literal != parts[i] {
			return nil, false
		}
	}
	return params, true
}

// overlaps reports whether two patterns can match a common path: same
// segment count and every position is compatible (placeholder matches
// anything, literals must be equal).
func overlaps(a, b []segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].param != "" || b[i].param != "" {
			continue
		}
		if a[i].literal != b[i].literal {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// scopedRouter implements Router with a pattern prefix and middleware stack.
// All scopes append into the same shared table, preserving global
// registration order across groups.
type scopedRouter struct {
	table      *routeTable
	prefix     string
	middleware []Middleware
}

func (r *scopedRouter) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodGet, path, h, mw...)
}

func (r *scopedRouter) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPost, path, h, mw...)
}

func (r *scopedRouter) PUT(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPut, path, h, mw...)
}

func (r *scopedRouter) PATCH(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPatch, path, h, mw...)
}

func (r *scopedRouter) DELETE(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodDelete, path, h, mw...)
}

func (r *scopedRouter) HEAD(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodHead, path, h, mw...)
}

func (r *scopedRouter) OPTIONS(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodOptions, path, h, mw...)
}

func (r *scopedRouter) Handle(method, path string, h HandlerFunc, mw ...Middleware) {
	full := r.prefix + path
	if full == "" {
		full = "/"
	}

	// Scope middleware runs before route-specific middleware.
	combined := make([]Middleware, 0, len(r.middleware)+len(mw))
	combined = append(combined, r.middleware...)
	combined = append(combined, mw...)

	r.table.add(method, full, h, combined)
}

func (r *scopedRouter) Group(fn func(Router)) {
	fn(&scopedRouter{
		table:      r.table,
		prefix:     r.prefix,
		middleware: append([]Middleware(nil), r.middleware...),
	})
}

func (r *scopedRouter) Route(pattern string, fn func(Router)) {
	fn(&scopedRouter{
		table:      r.table,
		prefix:     r.prefix + strings.TrimSuffix(pattern, "/"),
		middleware: append([]Middleware(nil), r.middleware...),
	})
}

func (r *scopedRouter) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}
