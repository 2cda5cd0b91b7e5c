// Package remote holds the HTTP plumbing shared by the hosted API
// clients: the error taxonomy, the client interface, and response
// body helpers.
package remote

import (
	"io"
	"net/http"
	"time"
)

// HTTPClient is the subset of *http.Client the API clients depend on.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns a client with the configured request timeout,
// the only bound on call duration. A timed-out call surfaces as
// ErrTransport at the caller.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// DrainAndClose discards any remaining body bytes and closes it so the
// underlying connection can be reused.
func DrainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
