// Package localauth issues access and refresh token pairs for verified local
// credentials, and validates and rotates refresh tokens.
package localauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cleanstack/authcore/identity"
	"github.com/cleanstack/authcore/token"
	"github.com/cleanstack/authcore/users"
)

// TokenPair is the result of a successful login, registration or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Identity     identity.Identity
}

// Service authenticates local credentials and manages the token lifecycle.
type Service struct {
	users           users.Repo
	codec           *token.Codec
	refreshRepo     RefreshTokenRepo
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	nowFunc         func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithAccessTokenTTL overrides the default 60 minute access token lifetime.
func WithAccessTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.accessTokenTTL = ttl
	}
}

// WithRefreshTokenTTL overrides the default 7 day refresh token lifetime.
func WithRefreshTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.refreshTokenTTL = ttl
	}
}

// WithRefreshTokenRepo replaces the default in-memory refresh token store.
func WithRefreshTokenRepo(repo RefreshTokenRepo) ServiceOption {
	return func(s *Service) {
		s.refreshRepo = repo
	}
}

// WithNowFunc overrides the clock (primarily for testing)
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// NewService creates a local token service backed by the given user repo and codec.
func NewService(userRepo users.Repo, codec *token.Codec, options ...ServiceOption) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[NewService] user repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] token codec is required")
	}

	s := &Service{
		users:           userRepo,
		codec:           codec,
		refreshRepo:     NewInMemoryRefreshTokenRepo(),
		accessTokenTTL:  60 * time.Minute,
		refreshTokenTTL: 7 * 24 * time.Hour,
		nowFunc:         time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *Service) AccessTokenTTL() time.Duration {
	return s.accessTokenTTL
}

// Authenticate checks the credentials against the user repo. It fails closed:
// any lookup miss or password mismatch yields ErrInvalidCredentials so callers
// cannot learn whether the email exists.
func (s *Service) Authenticate(email, password string) (identity.Identity, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return identity.Identity{}, ErrInvalidCredentials
	}
	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return identity.Identity{}, ErrInvalidCredentials
	}

	return identity.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Roles: user.Roles,
	}, nil
}

// IssueSession mints an access and refresh token pair for an already-verified
// identity. Any previous refresh token for the same user is superseded.
func (s *Service) IssueSession(id identity.Identity) (*TokenPair, error) {
	accessToken, err := s.codec.Sign(id, s.accessTokenTTL)
	if err != nil {
		return nil, errors.Wrap(err, "Service.IssueSession Sign")
	}

	refreshToken, err := token.GenerateRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, "Service.IssueSession GenerateRefreshToken")
	}

	// Single refresh token generation per login.
	if err := s.refreshRepo.DeleteByUserID(id.ID); err != nil {
		return nil, errors.Wrap(err, "Service.IssueSession DeleteByUserID")
	}
	if err := s.refreshRepo.Upsert(&StoredRefreshToken{
		Token:    refreshToken,
		UserID:   id.ID,
		IssuedAt: s.nowFunc(),
	}); err != nil {
		return nil, errors.Wrap(err, "Service.IssueSession Upsert")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    s.nowFunc().Add(s.accessTokenTTL),
		Identity:     id,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair, rotating the refresh
// token. The shape check runs first and rejects malformed tokens without
// touching the store.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	if !token.ValidateRefreshTokenShape(refreshToken) {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.refreshRepo.Get(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if s.nowFunc().Sub(stored.IssuedAt) > s.refreshTokenTTL {
		_ = s.refreshRepo.Delete(refreshToken)
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(stored.UserID)
	if err != nil {
		_ = s.refreshRepo.Delete(refreshToken)
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.IssueSession(identity.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Roles: user.Roles,
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("user_id", user.ID).Msg("refresh token rotated")
	return pair, nil
}

// Logout revokes the refresh token. Access tokens stay valid until expiry;
// there is no access token blacklist.
func (s *Service) Logout(refreshToken string) {
	if refreshToken == "" {
		return
	}
	_ = s.refreshRepo.Delete(refreshToken)
}

// Register creates a new account with the default User role and returns its
// identity. Password strength policy is the caller's concern.
func (s *Service) Register(email, password, name string) (identity.Identity, error) {
	if _, err := s.users.GetByEmail(email); err == nil {
		return identity.Identity{}, ErrEmailTaken
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return identity.Identity{}, errors.Wrap(err, "Service.Register HashPassword")
	}

	user := &users.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Roles:        []string{users.RoleUser},
		DateJoined:   s.nowFunc(),
	}
	if err := s.users.Upsert(user); err != nil {
		return identity.Identity{}, errors.Wrap(err, "Service.Register Upsert")
	}

	log.Info().Str("email", email).Msg("user registered")
	return identity.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Roles: user.Roles,
	}, nil
}
