package social

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider signals a provider outside the supported set.
	ErrUnknownProvider = errors.New("social: unknown provider")
	// ErrInvalidRequest indicates caller input validation errors.
	ErrInvalidRequest = errors.New("social: invalid request")
	// ErrProviderNotConfigured signals missing credentials for a known provider.
	ErrProviderNotConfigured = errors.New("social: provider not configured")
	// ErrEmptyToken indicates a provider response without usable token material.
	ErrEmptyToken = errors.New("social: provider returned empty token")
)

// ExchangeError carries the raw provider response for a failed token endpoint
// call. The body is preserved verbatim for operator diagnosis and the call is
// never retried automatically.
type ExchangeError struct {
	Provider   Provider
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("social: %s token endpoint failed: status=%d body=%s", e.Provider, e.StatusCode, e.Body)
}

// PostExchangeError marks a failure that happened after the provider already
// issued tokens. The authorization code is consumed at that point, so the
// connect attempt may have partially succeeded upstream even though nothing
// was stored.
type PostExchangeError struct {
	Err error
}

func (e *PostExchangeError) Error() string {
	return fmt.Sprintf("social: post-exchange failure: %v", e.Err)
}

func (e *PostExchangeError) Unwrap() error {
	return e.Err
}
