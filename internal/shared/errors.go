package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrUnauthorized     = fmt.Errorf("unauthorized")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("resource not found")
	ErrSocketDropped      = fmt.Errorf("push channel dropped")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// NetworkError reports a request that never got a response (dial failure, timeout, reset).
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", ErrAPIRequest, e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrAPIRequest, e.Err} }

// HTTPError reports a response with a non-2xx status.
type HTTPError struct {
	Method string
	Path   string
	Code   int
	Body   []byte
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%v: %s %s: status %d", ErrAPIRequest, e.Method, e.Path, e.Code)
	if len(e.Body) > 0 {
		msg = fmt.Sprintf("%s, body: %s", msg, truncate(string(e.Body), 200))
	}
	return msg
}

func (e *HTTPError) Unwrap() []error {
	switch e.Code {
	case 401:
		return []error{ErrAPIRequest, ErrUnauthorized}
	case 404:
		return []error{ErrAPIRequest, ErrNotFound}
	default:
		return []error{ErrAPIRequest}
	}
}

// DecodeError reports a response body that could not be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %s: malformed response: %v", ErrAPIRequest, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrAPIRequest, e.Err} }

// SocketDropped reports a push channel that closed or failed to open.
type SocketDropped struct {
	URL string
	Err error
}

func (e *SocketDropped) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrSocketDropped, e.URL, e.Err)
}

func (e *SocketDropped) Unwrap() []error { return []error{ErrSocketDropped, e.Err} }

// IsHTTPStatus reports whether err carries an [HTTPError] with the given status code.
func IsHTTPStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Code == code
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
