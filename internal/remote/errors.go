package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrInvalidBaseURL is returned when the service base URL is not absolute http(s).
	ErrInvalidBaseURL = errors.New("base URL must be an absolute http or https URL")

	// ErrBodyTooLarge is returned when a response exceeds the configured size limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrCrossHostRedirect is returned when the service redirects to another host.
	// The session cookie is never sent there and the page is not accepted.
	ErrCrossHostRedirect = errors.New("refusing redirect to another host")
)

// RemoteFetchError reports a non-success response from the service.
// Failed fetches are never cached.
type RemoteFetchError struct {
	// Path is the requested remote path.
	Path string

	// StatusCode is the HTTP status returned by the service.
	StatusCode int
}

// Error implements error.
func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %d %s", e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// NotAvailable reports whether the resource does not exist yet.
// The service answers 404 for days and years that have not been released.
func (e *RemoteFetchError) NotAvailable() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsNotAvailable reports whether err is a RemoteFetchError meaning
// "not released yet" rather than a fault.
func IsNotAvailable(err error) bool {
	var fetchErr *RemoteFetchError
	return errors.As(err, &fetchErr) && fetchErr.NotAvailable()
}
