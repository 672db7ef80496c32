package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means the news source could not be queried.
	ErrSourceUnavailable = errors.New("news source unavailable")
	// ErrStoreUnavailable means the durable store could not be reached at all.
	ErrStoreUnavailable = errors.New("news store unavailable")
	// ErrClassifier means a single classification call failed.
	ErrClassifier = errors.New("classifier error")
	// ErrParse means a classifier response could not be decoded.
	ErrParse = errors.New("classification parse error")
	// ErrWrite means a row could not be persisted.
	ErrWrite = errors.New("news write error")
)

// UpstreamError is returned when a provider answers with a non-success status.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrSourceUnavailable) match upstream failures.
func (e *UpstreamError) Unwrap() error {
	return ErrSourceUnavailable
}
