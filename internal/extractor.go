package internal

import "fmt"

// ExtractorSource reads one candidate value from the request context.
// An empty string means the source has nothing.
type ExtractorSource = func(Context) string

// Extractor resolves a request value by trying sources in order: the
// first non-empty value wins. The csrf middleware reads the submitted
// token this way (form field, then header), and the request-id
// middleware walks its candidate headers with one.
type Extractor struct {
	sources []ExtractorSource
}

// NewExtractor creates an Extractor over the given sources.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return Extractor{sources: sources}
}

// Extract returns the first non-empty value and true, or ("", false)
// when every source misses.
func (e Extractor) Extract(c Context) (string, bool) {
	for _, src := range e.sources {
		if v := src(c); v != "" {
			return v, true
		}
	}
	return "", false
}

// FromHeader reads from a request header.
func FromHeader(name string) ExtractorSource {
	return func(c Context) string {
		return c.Header(name)
	}
}

// FromQuery reads from a query parameter.
func FromQuery(name string) ExtractorSource {
	return func(c Context) string {
		return c.Query(name)
	}
}

// FromForm reads from a form field.
func FromForm(name string) ExtractorSource {
	return func(c Context) string {
		return c.Form(name)
	}
}

// FromCookie reads from a plain cookie.
func FromCookie(name string) ExtractorSource {
	return func(c Context) string {
		v, err := c.Cookie(name)
		if err != nil {
			return ""
		}
		return v
	}
}

// FromParam reads from a URL placeholder captured by the router.
func FromParam(name string) ExtractorSource {
	return func(c Context) string {
		return c.Param(name)
	}
}

// FromSession reads from a session value, rendering non-string values
// with fmt.Sprint.
func FromSession(key string) ExtractorSource {
	return func(c Context) string {
		val, err := c.SessionValue(key)
		if err != nil || val == nil {
			return ""
		}
		if s, ok := val.(string); ok {
			return s
		}
		return fmt.Sprint(val)
	}
}
