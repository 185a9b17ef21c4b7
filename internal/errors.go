package internal

import "net/http"

// HTTPError represents an HTTP error with all data needed for rendering.
// It implements the error interface and provides structured data for the
// dispatcher's error boundary to render error pages.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

	// RequestID is the request tracking ID.
	RequestID string

	// RedirectTo, when set, turns the error into a redirect response.
	// Used for unauthenticated access: the login URL carries the
	// originally requested path for a post-login bounce-back.
	RedirectTo string

	// Headers are response headers the error boundary sets on the wire
	// response. Discard wipes whatever a failed handler set, so headers
	// that must survive the failure (Allow on 405, Retry-After on 429)
	// travel on the error itself.
	Headers map[string]string

	// Code is the HTTP status code (e.g., 404, 500).
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return applyOpts(&HTTPError{
		Code:    code,
		Message: message,
	}, opts)
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

// WithRedirect makes the error resolve as a redirect to the given URL.
func WithRedirect(url string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RedirectTo = url
	}
}

// WithHeader attaches a response header that the error boundary sets after
// discarding the failed handler's output.
func WithHeader(name, value string) HTTPErrorOption {
	return func(e *HTTPError) {
		if e.Headers == nil {
			e.Headers = make(map[string]string)
		}
		e.Headers[name] = value
	}
}

// Convenience constructors for common HTTP errors.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return applyOpts(NewHTTPError(http.StatusBadRequest, message), opts)
}

// ErrUnauthenticated redirects to the login entry point. The originally
// requested path travels in the "next" query parameter.
func ErrUnauthenticated(loginURL string, opts ...HTTPErrorOption) *HTTPError {
	e := NewHTTPError(http.StatusFound, "authentication required")
	e.RedirectTo = loginURL
	return applyOpts(e, opts)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return applyOpts(NewHTTPError(http.StatusForbidden, message), opts)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return applyOpts(NewHTTPError(http.StatusNotFound, message), opts)
}

func ErrMethodNotAllowed(message string, opts ...HTTPErrorOption) *HTTPError {
	return applyOpts(NewHTTPError(http.StatusMethodNotAllowed, message), opts)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return applyOpts(NewHTTPError(http.StatusConflict, message), opts)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return applyOpts(NewHTTPError(http.StatusUnprocessableEntity, message), opts)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return applyOpts(NewHTTPError(http.StatusInternalServerError, message), opts)
}

func applyOpts(e *HTTPError, opts []HTTPErrorOption) *HTTPError {
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Helper functions for error inspection.

func IsHTTPError(err error) bool {
	_, ok := err.(*HTTPError)
	return ok
}

// AsHTTPError extracts the HTTPError from an error if present.
// Returns nil if the error is not an HTTPError.
func AsHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr
	}
	return nil
}
