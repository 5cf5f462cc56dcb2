package config

import (
	"strconv"
	"time"
)

type AuthConfig interface {
	GetAuthMode() string
	GetSigningSecret() string
	GetIssuer() string
	GetAudience() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetProviderAuthority() string
	GetProviderClientID() string
	GetRedirectURI() string
	GetSessionFile() string
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetAuthMode selects local, federated or none. Fixed at process start.
func (Auth) GetAuthMode() string {
	return GetEnv("AUTH_MODE", "local")
}

// GetSigningSecret returns the symmetric signing key. Absence is a fatal
// startup condition for local mode, enforced by the caller.
func (Auth) GetSigningSecret() string {
	return GetEnv("AUTH_SIGNING_SECRET", "")
}

func (Auth) GetIssuer() string {
	return GetEnv("AUTH_ISSUER", "authcore")
}

func (Auth) GetAudience() string {
	return GetEnv("AUTH_AUDIENCE", "authcore-client")
}

func (Auth) GetAccessTokenTTL() time.Duration {
	return minutesEnv("AUTH_ACCESS_TOKEN_MINUTES", 60)
}

func (Auth) GetRefreshTokenTTL() time.Duration {
	days := intEnv("AUTH_REFRESH_TOKEN_DAYS", 7)
	return time.Duration(days) * 24 * time.Hour
}

func (Auth) GetProviderAuthority() string {
	return GetEnv("AUTH_PROVIDER_AUTHORITY", "")
}

func (Auth) GetProviderClientID() string {
	return GetEnv("AUTH_PROVIDER_CLIENT_ID", "")
}

func (Auth) GetRedirectURI() string {
	return GetEnv("AUTH_REDIRECT_URI", "http://localhost:8080/auth/callback")
}

func (Auth) GetSessionFile() string {
	return GetEnv("AUTH_SESSION_FILE", "")
}

func minutesEnv(envVar string, defaultMinutes int) time.Duration {
	return time.Duration(intEnv(envVar, defaultMinutes)) * time.Minute
}

func intEnv(envVar string, defaultValue int) int {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}
