package container

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Lifetime controls how long a resolved instance is shared.
type Lifetime int

const (
	// Singleton caches the instance for the container's lifetime.
	Singleton Lifetime = iota
	// Transient builds a fresh instance on every resolution.
	Transient
)

// definition holds a registered factory and its lifetime. The resolution
// path travels with the call, never on the container, so concurrent
// resolutions cannot see each other's partial paths.
type definition struct {
	factory  func(*Container, []reflect.Type) (any, error)
	lifetime Lifetime
}

// Container resolves services by type. It is safe for concurrent use:
// the app hands it to request-scoped code, so registrations and
// resolutions may arrive from any goroutine. Cycle detection covers
// constructor registrations (RegisterFunc) and autowiring; a manual
// Register factory that resolves its own dependencies starts a fresh
// path.
type Container struct {
	mu         sync.Mutex
	defs       map[reflect.Type]*definition
	singletons map[reflect.Type]any
}

// New creates an empty container.
func New() *Container {
	return &Container{
		defs:       make(map[reflect.Type]*definition),
		singletons: make(map[reflect.Type]any),
	}
}

// RegisterOption configures a registration.
type RegisterOption func(*definition)

// WithTransient makes the registration build a fresh instance per
// resolution instead of caching a singleton.
func WithTransient() RegisterOption {
	return func(d *definition) {
		d.lifetime = Transient
	}
}

// Register stores a factory for T. Re-registering the same type
// overwrites the previous definition (last write wins) and drops any
// cached singleton built from it.
func Register[T any](c *Container, factory func(*Container) (T, error), opts ...RegisterOption) {
	t := typeOf[T]()
	d := &definition{
		factory: func(c *Container, _ []reflect.Type) (any, error) {
			return factory(c)
		},
	}
	for _, opt := range opts {
		opt(d)
	}

	c.mu.Lock()
	c.defs[t] = d
	delete(c.singletons, t)
	c.mu.Unlock()
}

// RegisterValue stores a pre-built instance as a singleton for T.
func RegisterValue[T any](c *Container, value T) {
	t := typeOf[T]()

	c.mu.Lock()
	c.defs[t] = &definition{
		factory: func(*Container, []reflect.Type) (any, error) { return value, nil },
	}
	c.singletons[t] = value
	c.mu.Unlock()
}

// RegisterFunc registers a constructor function. Its parameters are
// resolved through the container by type; it must return the service,
// optionally with a trailing error:
//
//	func NewRegions(q db.Querier, log *slog.Logger) *Regions
//	func NewPool(cfg db.Config) (*pgxpool.Pool, error)
func RegisterFunc(c *Container, constructor any, opts ...RegisterOption) error {
	fn := reflect.ValueOf(constructor)
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("%w: not a function: %T", ErrInvalidConstructor, constructor)
	}
	if ft.IsVariadic() {
		return fmt.Errorf("%w: variadic constructor: %s", ErrInvalidConstructor, ft)
	}

	switch ft.NumOut() {
	case 1:
		if ft.Out(0) == errType {
			return fmt.Errorf("%w: constructor returns only error: %s", ErrInvalidConstructor, ft)
		}
	case 2:
		if ft.Out(1) != errType {
			return fmt.Errorf("%w: second return must be error: %s", ErrInvalidConstructor, ft)
		}
	default:
		return fmt.Errorf("%w: must return (T) or (T, error): %s", ErrInvalidConstructor, ft)
	}

	out := ft.Out(0)
	d := &definition{
		factory: func(c *Container, path []reflect.Type) (any, error) {
			args := make([]reflect.Value, ft.NumIn())
			for i := 0; i < ft.NumIn(); i++ {
				dep, err := c.resolveType(ft.In(i), path)
				if err != nil {
					return nil, err
				}
				args[i] = reflect.ValueOf(dep)
			}
			results := fn.Call(args)
			if len(results) == 2 && !results[1].IsNil() {
				return nil, results[1].Interface().(error)
			}
			return results[0].Interface(), nil
		},
	}
	for _, opt := range opts {
		opt(d)
	}

	c.mu.Lock()
	c.defs[out] = d
	delete(c.singletons, out)
	c.mu.Unlock()
	return nil
}

// Resolve builds or returns the instance for T.
func Resolve[T any](c *Container) (T, error) {
	var zero T
	v, err := c.resolveType(typeOf[T](), nil)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// MustResolve builds or returns the instance for T, panicking on failure.
// Use during startup composition where failure should abort the worker.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether T has a registered factory or is autowirable.
func Has[T any](c *Container) bool {
	t := typeOf[T]()

	c.mu.Lock()
	_, ok := c.defs[t]
	c.mu.Unlock()
	if ok {
		return true
	}
	return autowirable(t)
}

// Validate dry-runs the full dependency graph: every registered type is
// resolved once so unresolvable dependencies and cycles surface as a
// startup failure instead of a request-time 500. Singletons built here
// stay cached, which doubles as warm-up.
func (c *Container) Validate() error {
	c.mu.Lock()
	types := make([]reflect.Type, 0, len(c.defs))
	for t := range c.defs {
		types = append(types, t)
	}
	c.mu.Unlock()

	slices.SortFunc(types, func(a, b reflect.Type) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		default:
			return 0
		}
	})

	for _, t := range types {
		if _, err := c.resolveType(t, nil); err != nil {
			return err
		}
	}
	return nil
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// resolveType builds the instance for t. path is the resolution chain
// that led here; it rides the call stack so concurrent resolutions stay
// independent.
func (c *Container) resolveType(t reflect.Type, path []reflect.Type) (any, error) {
	if slices.Contains(path, t) {
		return nil, cycleError(path, t)
	}

	c.mu.Lock()
	if v, ok := c.singletons[t]; ok {
		c.mu.Unlock()
		return v, nil
	}
	def, ok := c.defs[t]
	c.mu.Unlock()

	path = append(path, t)
	if !ok {
		return c.autowire(t, path)
	}

	// The factory runs outside the lock; it may resolve further types.
	v, err := def.factory(c, path)
	if err != nil {
		return nil, err
	}
	if def.lifetime == Singleton {
		return c.storeSingleton(t, v), nil
	}
	return v, nil
}

// storeSingleton caches v for t. When two goroutines race to build the
// same singleton the first stored instance wins, so every caller observes
// the same one.
func (c *Container) storeSingleton(t reflect.Type, v any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.singletons[t]; ok {
		return existing
	}
	c.singletons[t] = v
	return v
}

// autowirable reports whether t can be built without a factory:
// a pointer to a struct whose exported fields can themselves resolve.
func autowirable(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

// autowire builds a *struct by resolving each exported field by type.
// Primitive fields with no registration fail: the container refuses to
// guess scalar configuration. path already ends in t.
func (c *Container) autowire(t reflect.Type, path []reflect.Type) (any, error) {
	parents := path[:len(path)-1]
	if !autowirable(t) {
		return nil, unresolvableError(parents, t, "no factory registered")
	}

	elem := t.Elem()
	v := reflect.New(elem)
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		if !field.IsExported() {
			continue
		}

		ft := field.Type

		c.mu.Lock()
		_, registered := c.defs[ft]
		c.mu.Unlock()
		if !registered {
			if isPrimitive(ft) {
				return nil, unresolvableError(parents, t,
					fmt.Sprintf("field %s %s has no registration", field.Name, ft))
			}
			if ft.Kind() == reflect.Interface {
				return nil, unresolvableError(parents, t,
					fmt.Sprintf("interface field %s %s has no registration", field.Name, ft))
			}
		}

		dep, err := c.resolveType(ft, path)
		if err != nil {
			return nil, err
		}
		v.Elem().Field(i).Set(reflect.ValueOf(dep))
	}

	// Autowired types behave as singletons, matching explicit registrations.
	return c.storeSingleton(t, v.Interface()), nil
}

// isPrimitive reports whether t is a scalar or plain data shape the
// container will never invent a value for.
func isPrimitive(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.Map, reflect.Slice, reflect.Array, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}
