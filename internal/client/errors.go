package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for every non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func statusIs(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// IsNotFound reports whether the server answered 404.
func IsNotFound(err error) bool {
	return statusIs(err, http.StatusNotFound)
}

// IsConflict reports whether the server refused the write with 409.
func IsConflict(err error) bool {
	return statusIs(err, http.StatusConflict)
}

// IsUnauthorized reports whether the request lacked valid credentials.
func IsUnauthorized(err error) bool {
	return statusIs(err, http.StatusUnauthorized)
}
