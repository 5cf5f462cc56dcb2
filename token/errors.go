package token

import "errors"

var (
	// ErrMalformedToken indicates the raw string is not a parsable JWT.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature indicates the signature failed verification or the
	// signing algorithm is not the expected one.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired indicates the token's exp claim is in the past.
	ErrExpired = errors.New("token expired")

	// ErrIssuerMismatch indicates the iss claim does not match the configured issuer.
	ErrIssuerMismatch = errors.New("token issuer mismatch")

	// ErrAudienceMismatch indicates the aud claim does not match the configured audience.
	ErrAudienceMismatch = errors.New("token audience mismatch")
)
