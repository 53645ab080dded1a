package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// CredentialError reports a failure minting the push backend's bearer token.
// Fatal to the push phase of one dispatch call; never propagated to callers.
// Temporary distinguishes outages (network errors, 5xx from the token
// endpoint) from permanent misconfiguration (unparsable key, a response with
// no access_token) so alerting can tell them apart.
type CredentialError struct {
	Temporary bool
	Err       error
}

func (e *CredentialError) Error() string {
	if e.Temporary {
		return fmt.Sprintf("push credential (temporary): %v", e.Err)
	}
	return fmt.Sprintf("push credential: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// DeliveryError reports a single-token push failure. Unregistered marks
// tokens the backend no longer recognizes; the dispatcher deactivates those.
type DeliveryError struct {
	Token        string
	Unregistered bool
	Err          error
}

func (e *DeliveryError) Error() string {
	if e.Unregistered {
		return fmt.Sprintf("push delivery: token unregistered: %v", e.Err)
	}
	return fmt.Sprintf("push delivery: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
