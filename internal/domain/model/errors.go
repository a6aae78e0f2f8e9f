package model

import "errors"

// Failure kinds shared across layers. Adapters wrap these so callers can
// branch with errors.Is.
var (
	// ErrAuth means the credential is missing, invalid or expired.
	ErrAuth = errors.New("authentication required")
	// ErrUpstream means the provider was unreachable or answered non-2xx.
	ErrUpstream = errors.New("upstream request failed")
	// ErrMalformedInput means the aggregator received structurally invalid input.
	ErrMalformedInput = errors.New("malformed recap input")
)
