package federated

import "errors"

var (
	// ErrStateMismatch is returned when the state echoed back by the provider
	// does not match a stored state. Hard failure, not recoverable; the token
	// endpoint is never contacted.
	ErrStateMismatch = errors.New("state parameter mismatch")

	// ErrNonceMismatch is returned when the identity token's nonce does not
	// match the one bound to the redirect.
	ErrNonceMismatch = errors.New("nonce mismatch")

	// ErrCallbackFailed wraps token exchange and identity token failures.
	ErrCallbackFailed = errors.New("authorization callback failed")
)
