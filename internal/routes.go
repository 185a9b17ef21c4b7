package internal

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrUnknownAction is returned when a route declaration references an action
// name with no registered handler.
var ErrUnknownAction = errors.New("routes: unknown action")

// ErrUnknownMiddleware is returned when a route declaration references a
// middleware name with no registration.
var ErrUnknownMiddleware = errors.New("routes: unknown middleware")

// RouteDecl is one declarative route record. Records are applied in file
// order, so the file's top-to-bottom order IS the match order.
type RouteDecl struct {
	Method     string   `yaml:"method"`
	Path       string   `yaml:"path"`
	Action     string   `yaml:"action"`
	Middleware []string `yaml:"middleware"`
}

// RouteRegistry maps declarative names to handlers and middleware. Handlers
// are registered under "Controller.action" style names by the application
// at startup, after the container has built the controllers.
type RouteRegistry struct {
	actions     map[string]HandlerFunc
	middlewares map[string]Middleware
}

// NewRouteRegistry creates an empty registry.
func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{
		actions:     make(map[string]HandlerFunc),
		middlewares: make(map[string]Middleware),
	}
}

// Action registers a named handler. Last write wins.
func (rr *RouteRegistry) Action(name string, h HandlerFunc) *RouteRegistry {
	rr.actions[name] = h
	return rr
}

// Middleware registers a named middleware. Last write wins.
func (rr *RouteRegistry) Middleware(name string, mw Middleware) *RouteRegistry {
	rr.middlewares[name] = mw
	return rr
}

// LoadRoutes parses YAML route declarations and registers them on r in file
// order. Loading is purely additive: loading the same data twice duplicates
// the entries (and with them the ambiguity warnings), it does not dedupe.
func LoadRoutes(r Router, data []byte, reg *RouteRegistry) error {
	var decls []RouteDecl
	if err := yaml.Unmarshal(data, &decls); err != nil {
		return fmt.Errorf("routes: parse: %w", err)
	}

	for i, d := range decls {
		if d.Method == "" || d.Path == "" || d.Action == "" {
			return fmt.Errorf("routes: record %d is missing method, path, or action", i)
		}

		h, ok := reg.actions[d.Action]
		if !ok {
			return fmt.Errorf("%w: %q (record %d)", ErrUnknownAction, d.Action, i)
		}

		mw := make([]Middleware, 0, len(d.Middleware))
		for _, name := range d.Middleware {
			m, ok := reg.middlewares[name]
			if !ok {
				return fmt.Errorf("%w: %q (record %d)", ErrUnknownMiddleware, name, i)
			}
			mw = append(mw, m)
		}

		r.Handle(d.Method, d.Path, h, mw...)
	}
	return nil
}
