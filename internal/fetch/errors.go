package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrDisallowed indicates robots.txt forbids fetching the URL.
	ErrDisallowed = errors.New("disallowed by robots.txt")

	// ErrRateLimited indicates the server answered 429.
	ErrRateLimited = errors.New("rate limited by server")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// IsNotFound returns true if the error is a 404 or 410 response.
func IsNotFound(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == 404 || se.StatusCode == 410
	}
	return false
}
