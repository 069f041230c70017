package courier

import (
	"errors"
	"fmt"
)

// CourierError represents an error raised by the provider layer. These are
// programmer/operator errors (bad config, unknown provider, not-ready
// instance); business failures travel inside response DTOs instead.
type CourierError struct {
	Provider string
	Code     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *CourierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Provider, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Provider, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CourierError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for CourierError.
func (e *CourierError) Is(target error) bool {
	t, ok := target.(*CourierError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewCourierError creates a new CourierError.
func NewCourierError(provider, code, message string) *CourierError {
	return &CourierError{
		Provider: provider,
		Code:     code,
		Message:  message,
	}
}

// WithCause adds a cause to the error.
func (e *CourierError) WithCause(err error) *CourierError {
	e.Cause = err
	return e
}

// Sentinel errors for the provider layer.
var (
	// ErrMissingCredential indicates the provider was constructed without an API key.
	ErrMissingCredential = errors.New("api key is required")

	// ErrMissingEndpoint indicates the provider was constructed without a base URL.
	ErrMissingEndpoint = errors.New("base url is required")

	// ErrNotReady indicates an operation was invoked on an instance that was
	// never successfully constructed.
	ErrNotReady = errors.New("courier not initialized")

	// ErrProviderNotFound indicates the requested provider is not registered.
	ErrProviderNotFound = errors.New("unknown courier provider")

	// ErrNoProviders indicates the registry holds no providers at all.
	ErrNoProviders = errors.New("no courier providers registered")

	// ErrNilRequest indicates a nil request was passed to an operation.
	ErrNilRequest = errors.New("request must not be nil")
)

// IsConfigError reports whether err stems from an incomplete provider
// configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingCredential) || errors.Is(err, ErrMissingEndpoint)
}
