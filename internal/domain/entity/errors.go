package entity

import "errors"

// Sentinel errors classify every failure the monitoring core can surface.
// Adapters wrap these with %w so callers can branch on errors.Is.
var (
	// ErrInvalidAddress flags an address that is not well formed for its
	// chain. Input validation failure, not retryable.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrMalformedCredential flags an exchange credential string missing its
	// expected structure. Not retryable.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrProviderUnavailable flags a transient network or timeout condition.
	// Safe to retry with backoff; the core never retries internally.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrAuthenticationFailed flags a credential rejected by the remote
	// exchange. Not retryable without new credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrProviderError flags a well-formed but error-flagged remote response.
	ErrProviderError = errors.New("provider error")

	// ErrRateUnavailable flags a conversion for an asset pair with no known
	// rate. Local to the conversion call.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrUnsupported flags a capability not implemented for an adapter
	// variant, or an unknown registry key. Distinct from a runtime failure.
	ErrUnsupported = errors.New("unsupported")

	// ErrProfileNotFound is raised by the profile store when no profile has
	// been persisted yet.
	ErrProfileNotFound = errors.New("profile not found")
)
