package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrUnresolvable is returned when a requested type cannot be built:
	// no factory is registered and the type is not autowirable, or one of
	// its dependencies is a primitive with no registration.
	ErrUnresolvable = errors.New("container: unresolvable dependency")

	// ErrCycle is returned when the dependency graph contains a cycle.
	// Resolution fails fast instead of recursing.
	ErrCycle = errors.New("container: dependency cycle")

	// ErrInvalidConstructor is returned by RegisterFunc for functions
	// that don't look like constructors.
	ErrInvalidConstructor = errors.New("container: invalid constructor")
)

// unresolvableError builds an ErrUnresolvable with the resolution path.
func unresolvableError(stack []reflect.Type, t reflect.Type, reason string) error {
	return fmt.Errorf("%w: %s (%s)%s", ErrUnresolvable, t, reason, pathSuffix(stack, t))
}

// cycleError builds an ErrCycle naming the full loop.
func cycleError(stack []reflect.Type, t reflect.Type) error {
	return fmt.Errorf("%w%s", ErrCycle, pathSuffix(stack, t))
}

func pathSuffix(stack []reflect.Type, t reflect.Type) string {
	if len(stack) == 0 {
		return ""
	}
	names := make([]string, 0, len(stack)+1)
	for _, s := range stack {
		names = append(names, s.String())
	}
	names = append(names, t.String())
	return ": " + strings.Join(names, " -> ")
}
