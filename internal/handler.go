package internal

// Handler declares routes on a router.
//
// Example:
//
//	type SectorHandler struct {
//	    repo SectorRepository
//	}
//
//	func (h *SectorHandler) Routes(r topo.Router) {
//	    r.GET("/sectors", h.list)
//	    r.GET("/sectors/{id}", h.show)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// It receives a Context and returns an error.
// Returning a non-nil error routes through the dispatcher's error boundary.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware may pass through to next, write a response and return nil to
// short-circuit, or return an error.
//
// Example:
//
//	func RequireAuth(next topo.HandlerFunc) topo.HandlerFunc {
//	    return func(c topo.Context) error {
//	        if !isAuthenticated(c) {
//	            return c.Redirect(http.StatusFound, "/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error
