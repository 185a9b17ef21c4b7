package internal

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

const routesYAML = `
- method: GET
  path: /sectors/{id}
  action: sectors.show
- method: GET
  path: /sectors/create
  action: sectors.create
  middleware: [auth]
- method: POST
  path: /sectors
  action: sectors.store
  middleware: [auth, csrf]
`

func testRegistry() *RouteRegistry {
	reg := NewRouteRegistry()
	reg.Action("sectors.show", nopHandler)
	reg.Action("sectors.create", nopHandler)
	reg.Action("sectors.store", nopHandler)
	reg.Middleware("auth", func(next HandlerFunc) HandlerFunc { return next })
	reg.Middleware("csrf", func(next HandlerFunc) HandlerFunc { return next })
	return reg
}

func TestLoadRoutes(t *testing.T) {
	t.Parallel()

	t.Run("file order is match order", func(t *testing.T) {
		t.Parallel()

		tbl := newTestTable(t, false)
		r := &scopedRouter{table: tbl}
		require.NoError(t, LoadRoutes(r, []byte(routesYAML), testRegistry()))

		// The placeholder record comes first in the file, so it wins.
		rr, _, err := tbl.Resolve(http.MethodGet, "/sectors/create")
		require.NoError(t, err)
		require.Equal(t, "/sectors/{id}", rr.Pattern)
	})

	t.Run("middleware names resolved per record", func(t *testing.T) {
		t.Parallel()

		tbl := newTestTable(t, false)
		r := &scopedRouter{table: tbl}
		require.NoError(t, LoadRoutes(r, []byte(routesYAML), testRegistry()))

		rr, _, err := tbl.Resolve(http.MethodPost, "/sectors")
		require.NoError(t, err)
		require.Len(t, rr.middleware, 2)
	})

	t.Run("unknown action fails", func(t *testing.T) {
		t.Parallel()

		tbl := newTestTable(t, false)
		r := &scopedRouter{table: tbl}
		err := LoadRoutes(r, []byte("- {method: GET, path: /x, action: missing}"), testRegistry())
		require.ErrorIs(t, err, ErrUnknownAction)
	})

	t.Run("unknown middleware fails", func(t *testing.T) {
		t.Parallel()

		tbl := newTestTable(t, false)
		r := &scopedRouter{table: tbl}
		err := LoadRoutes(r, []byte("- {method: GET, path: /x, action: sectors.show, middleware: [nope]}"), testRegistry())
		require.ErrorIs(t, err, ErrUnknownMiddleware)
	})

	t.Run("incomplete record fails", func(t *testing.T) {
		t.Parallel()

		tbl := newTestTable(t, false)
		r := &scopedRouter{table: tbl}
		err := LoadRoutes(r, []byte("- {method: GET, path: /x}"), testRegistry())
		require.Error(t, err)
	})

	t.Run("double load duplicates entries", func(t *testing.T) {
		t.Parallel()

		tbl := newTestTable(t, false)
		r := &scopedRouter{table: tbl}
		require.NoError(t, LoadRoutes(r, []byte(routesYAML), testRegistry()))
		require.NoError(t, LoadRoutes(r, []byte(routesYAML), testRegistry()))
		require.Len(t, tbl.entries, 6)
	})
}
