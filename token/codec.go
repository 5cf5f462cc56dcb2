// Package token encodes and decodes the credentials this system issues: signed
// bearer access tokens carrying identity claims, and opaque random refresh tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cleanstack/authcore/identity"
)

// Codec signs and validates access tokens with a symmetric key. HS256 is the
// only accepted algorithm; tokens presenting any other method are rejected
// before signature verification.
type Codec struct {
	signer   Signer
	issuer   string
	audience string
	nowFunc  func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithIssuer sets the iss claim stamped on signed tokens and required on
// validated tokens. Empty disables the issuer check.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

// WithAudience sets the aud claim stamped on signed tokens and required on
// validated tokens. Empty disables the audience check.
func WithAudience(audience string) CodecOption {
	return func(c *Codec) {
		c.audience = audience
	}
}

// WithNowFunc overrides the clock (primarily for testing)
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// NewCodec creates a codec signing with the given symmetric secret.
func NewCodec(secret string, options ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}

	c := &Codec{
		signer:  NewHMACSigner(secret),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Sign mints an access token binding the identity for ttl from now. The token
// carries one roles entry per role plus sub, email, name, iat, exp and a
// unique jti.
func (c *Codec) Sign(id identity.Identity, ttl time.Duration) (string, error) {
	now := c.nowFunc()
	claims := jwt.MapClaims{
		"sub":   id.ID,
		"email": id.Email,
		"name":  id.Name,
		"roles": id.Roles,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"jti":   uuid.New().String(),
	}
	if c.issuer != "" {
		claims["iss"] = c.issuer
	}
	if c.audience != "" {
		claims["aud"] = c.audience
	}

	return c.signer.Sign(claims)
}

// Validate verifies the token's signature, algorithm, expiry and, when
// configured, issuer and audience, then reconstructs the embedded Identity.
func (c *Codec) Validate(rawToken string) (identity.Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
	)

	parsed, err := parser.Parse(rawToken, c.signer.GetVerificationKey)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return identity.Identity{}, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return identity.Identity{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return identity.Identity{}, ErrInvalidSignature
		default:
			return identity.Identity{}, ErrMalformedToken
		}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return identity.Identity{}, ErrMalformedToken
	}

	if c.issuer != "" {
		if iss, _ := claims["iss"].(string); iss != c.issuer {
			return identity.Identity{}, ErrIssuerMismatch
		}
	}
	if c.audience != "" {
		if aud, _ := claims["aud"].(string); aud != c.audience {
			return identity.Identity{}, ErrAudienceMismatch
		}
	}

	return identity.FromClaims(claims), nil
}

// ExtractExpiry decodes the token's exp claim without verifying the signature.
// Callers use it for local, zero-latency expiry checks; authenticity remains
// the issuer's concern.
func ExtractExpiry(rawToken string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, ErrMalformedToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}, ErrMalformedToken
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, ErrMalformedToken
	}
	return time.Unix(int64(exp), 0), nil
}

// DecodeClaims returns a token's claim set without verifying the signature.
func DecodeClaims(rawToken string) (map[string]any, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil, ErrMalformedToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
