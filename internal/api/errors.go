package api

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrUnavailable = errors.New("news API is unavailable")

// HTTPError is returned when the news API responds with a non-2xx status
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	statusText := e.Status
	if statusText == "" {
		statusText = http.StatusText(e.StatusCode)
	}
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d %s", e.StatusCode, statusText)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, statusText, e.Body)
}

// IsStatus reports whether err is an HTTPError with the given status code
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}

// unavailableError records the underlying cause of a call that never reached the API
type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s: %v", ErrUnavailable, e.cause)
}

func (e *unavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *unavailableError) Unwrap() error {
	return e.cause
}
