package localauth

import "errors"

var (
	// ErrInvalidCredentials is returned for every authentication miss. It never
	// distinguishes an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidRefreshToken is returned when a refresh token fails the shape
	// check or is not present in the backing store.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrEmailTaken is returned when registration targets an existing account.
	ErrEmailTaken = errors.New("user with this email already exists")
)
