package auth

import "errors"

var (
	// ErrUnsupportedOperation is returned when an operation is invoked under a
	// mode that cannot serve it, e.g. credential login while federated. This is
	// a programming-contract violation, not a user error.
	ErrUnsupportedOperation = errors.New("operation not supported in configured auth mode")

	// ErrRegistrationNotSupported is returned for Register outside local mode.
	ErrRegistrationNotSupported = errors.New("registration is only available with local authentication")

	// ErrNotAuthenticated is returned when an operation needs a session and
	// none exists.
	ErrNotAuthenticated = errors.New("no active session")
)
