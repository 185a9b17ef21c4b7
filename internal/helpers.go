package internal

import "strconv"

// ContextValue retrieves a typed request-scoped value stored with
// Context.Set. Returns T's zero value when the key is absent or holds a
// different type.
func ContextValue[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

// Param returns a typed URL placeholder value. Missing placeholders and
// values that do not parse as T yield T's zero value; handlers that need
// to distinguish should read the raw string via Context.Param.
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	v, _ := parse[T](c.Param(name))
	return v
}

// Query returns a typed query parameter, zero-valued on miss or parse
// failure.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	v, _ := parse[T](c.Query(name))
	return v
}

// QueryDefault returns a typed query parameter, falling back to
// defaultValue when the parameter is absent or does not parse.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	v, ok := parse[T](raw)
	if !ok {
		return defaultValue
	}
	return v
}

// parse converts raw into T. Only the plain underlying types are
// recognized; defined types fall through to (zero, false).
func parse[T ~string | ~int | ~int64 | ~float64 | ~bool](raw string) (T, bool) {
	var v T
	switch p := any(&v).(type) {
	case *string:
		*p = raw
	case *int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return v, false
		}
		*p = n
	case *int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return v, false
		}
		*p = n
	case *float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return v, false
		}
		*p = f
	case *bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return v, false
		}
		*p = b
	default:
		return v, false
	}
	return v, true
}
