package token

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

// RefreshTokenLength is the exact byte length of a decoded refresh token.
// The shape check below relies on it.
const RefreshTokenLength = 64

// GenerateRefreshToken returns a fresh opaque refresh token: 64
// cryptographically random bytes, base64-encoded for transport. It carries no
// claims and is structurally unrelated to access tokens.
func GenerateRefreshToken() (string, error) {
	tokenBytes := make([]byte, RefreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "failed to generate refresh token bytes")
	}
	return base64.StdEncoding.EncodeToString(tokenBytes), nil
}

// ValidateRefreshTokenShape reports whether the token decodes to exactly
// RefreshTokenLength bytes. This is a structural check only: it does not
// prove the token was ever issued.
func ValidateRefreshTokenShape(refreshToken string) bool {
	if refreshToken == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(refreshToken)
	if err != nil {
		return false
	}
	return len(decoded) == RefreshTokenLength
}
