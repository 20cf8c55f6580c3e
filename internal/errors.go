package internal

import (
	"errors"
	"net/http"
)

// Lifecycle errors.
var (
	ErrAlreadyInitialized = errors.New("lightmvc: app already initialized")
	ErrNoResponse         = errors.New("lightmvc: render phase did not produce a response")
	ErrNotAListener       = errors.New("lightmvc: value implements no lifecycle listener method")
	ErrEmptyPipeline      = errors.New("lightmvc: middleware pipeline exhausted")
	ErrNoViewEngine       = errors.New("lightmvc: no view engine configured")
	ErrMissingTemplate    = errors.New("lightmvc: view has no templatefile")
	ErrUnsupportedOutput  = errors.New("lightmvc: unsupported controller output")
	ErrUnknownMiddleware  = errors.New("lightmvc: unknown middleware")
	ErrCycleReused        = errors.New("lightmvc: cycle already ran")
)

// HTTPError is an error carrying the status code it should be reported with.
// Actions return it to produce 4xx responses without building them by hand.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

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

// NewHTTPError creates a new HTTPError with the given status code and message.
// An empty message defaults to the status text.
func NewHTTPError(code int, message string, cause ...error) *HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	return &HTTPError{
		Code:    code,
		Message: message,
		Err:     errors.Join(cause...),
	}
}

// Convenience constructors for common HTTP errors.

func ErrBadRequest(message string, cause ...error) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, cause...)
}

func ErrUnauthorized(message string, cause ...error) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, cause...)
}

func ErrForbidden(message string, cause ...error) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, cause...)
}

func ErrNotFound(message string, cause ...error) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, cause...)
}

func ErrTooManyRequests(message string, cause ...error) *HTTPError {
	return NewHTTPError(http.StatusTooManyRequests, message, cause...)
}

func ErrInternal(message string, cause ...error) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, cause...)
}

func ErrServiceUnavailable(message string, cause ...error) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, cause...)
}

// AsHTTPError extracts the HTTPError from an error chain if present.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}
