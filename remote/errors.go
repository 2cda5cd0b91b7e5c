package remote

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the hosted API clients.
var (
	// ErrInvalidAudio indicates the service rejected the audio payload.
	ErrInvalidAudio = errors.New("invalid audio")

	// ErrService indicates the API rejected an otherwise well-formed request.
	ErrService = errors.New("service error")

	// ErrTransport indicates a network failure, timeout, or server-side error.
	ErrTransport = errors.New("transport error")
)

// APIError represents a non-2xx response from a hosted API.
type APIError struct {
	Service    string // "whisper" or "llm"
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Service, e.StatusCode, e.Message)
}

// Unwrap maps the status code onto a sentinel so callers can classify
// with errors.Is. Payload-rejection codes on the whisper service mean
// the audio itself was unusable.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode >= 500:
		return ErrTransport
	case e.Service == "whisper" && payloadRejected(e.StatusCode):
		return ErrInvalidAudio
	case e.StatusCode >= 400:
		return ErrService
	default:
		return nil
	}
}

func payloadRejected(status int) bool {
	switch status {
	case 400, 413, 415, 422:
		return true
	}
	return false
}
