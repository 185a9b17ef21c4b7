// Package container provides a typed dependency container with
// singleton and transient lifetimes, constructor autowiring, and
// fail-fast cycle detection.
//
// Services are keyed by their Go type, never by free-form strings, so a
// missing registration is caught at composition time. A container is
// built once per worker process: register everything, call [Container.Validate]
// to dry-run the full dependency graph, and treat the container as
// read-only afterwards. Registration and resolution are not safe for
// concurrent use; the startup-then-read-only lifecycle makes that a
// non-issue in practice.
//
// # Quick Start
//
//	c := container.New()
//
//	container.RegisterValue(c, cfg)
//	container.Register(c, func(c *container.Container) (*pgxpool.Pool, error) {
//	    return db.Connect(ctx, container.MustResolve[db.Config](c))
//	})
//	container.RegisterFunc(c, handlers.NewRegions) // parameters resolved by type
//
//	if err := c.Validate(); err != nil {
//	    log.Fatal(err) // unresolvable graph is a startup failure, not a 500
//	}
//
//	h := container.MustResolve[*handlers.Regions](c)
package container
