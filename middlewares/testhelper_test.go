package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/craghq/topo/internal"
)

// routes adapts a function to the internal.Handler interface.
type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

// newApp builds an app with a single GET and POST route at path, both
// wrapped in the given middleware.
func newApp(path string, h internal.HandlerFunc, mw internal.Middleware, opts ...internal.Option) *internal.App {
	opts = append(opts, internal.WithHandlers(routes(func(r internal.Router) {
		r.GET(path, h, mw)
		r.POST(path, h, mw)
	})))
	return internal.New(opts...)
}

func doRequest(app *internal.App, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}
