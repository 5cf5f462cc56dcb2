// Package auth exposes a single session facade over the two trust models:
// locally-issued bearer tokens and federated single sign-on. The rest of the
// application talks to the Manager without knowing which flow backs it.
package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cleanstack/authcore/federated"
	"github.com/cleanstack/authcore/identity"
	"github.com/cleanstack/authcore/localauth"
	"github.com/cleanstack/authcore/session"
)

// Manager dispatches login, logout, refresh and session reads to the flow
// selected by the configured Mode. Results land in the session store; the
// store only ever changes on a fully successful response.
type Manager struct {
	mode      Mode
	local     *localauth.Service
	federated *federated.Client
	store     *session.Store
	nowFunc   func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNowFunc overrides the clock (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a session manager for the given mode. The backing flow
// for the selected mode must be provided; the other may be nil.
func NewManager(mode Mode, local *localauth.Service, fed *federated.Client, store *session.Store, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] session store is required")
	}
	if mode == ModeLocal && local == nil {
		return nil, errors.New("[NewManager] local service is required for local mode")
	}
	if mode == ModeFederated && fed == nil {
		return nil, errors.New("[NewManager] federated client is required for federated mode")
	}

	m := &Manager{
		mode:      mode,
		local:     local,
		federated: fed,
		store:     store,
		nowFunc:   time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Mode returns the configured auth mode.
func (m *Manager) Mode() Mode {
	return m.mode
}

// SupportsRegistration reports whether Register can succeed under the
// configured mode.
func (m *Manager) SupportsRegistration() bool {
	return m.mode == ModeLocal
}

// Login authenticates local credentials and establishes a session. Supplying
// credentials while the manager is federated is a contract violation: it fails
// with ErrUnsupportedOperation and performs no redirect.
func (m *Manager) Login(ctx context.Context, email, password string) (identity.Identity, error) {
	if m.mode != ModeLocal {
		return identity.Identity{}, ErrUnsupportedOperation
	}

	id, err := m.local.Authenticate(email, password)
	if err != nil {
		log.Warn().Str("email", email).Msg("login rejected")
		return identity.Identity{}, err
	}

	pair, err := m.local.IssueSession(id)
	if err != nil {
		return identity.Identity{}, err
	}

	if err := m.setSession(pair.AccessToken, pair.RefreshToken, pair.Identity); err != nil {
		return identity.Identity{}, err
	}
	log.Info().Str("user_id", id.ID).Msg("user logged in")
	return pair.Identity, nil
}

// Register creates a local account and logs it in. Only meaningful under
// local mode.
func (m *Manager) Register(ctx context.Context, email, password, name string) (identity.Identity, error) {
	if m.mode != ModeLocal {
		return identity.Identity{}, ErrRegistrationNotSupported
	}

	id, err := m.local.Register(email, password, name)
	if err != nil {
		return identity.Identity{}, err
	}

	pair, err := m.local.IssueSession(id)
	if err != nil {
		return identity.Identity{}, err
	}
	if err := m.setSession(pair.AccessToken, pair.RefreshToken, pair.Identity); err != nil {
		return identity.Identity{}, err
	}
	return pair.Identity, nil
}

// BeginFederatedLogin returns the provider redirect URL that starts the
// single-sign-on flow.
func (m *Manager) BeginFederatedLogin() (string, error) {
	if m.mode != ModeFederated {
		return "", ErrUnsupportedOperation
	}

	authURL, _, _, err := m.federated.BuildAuthorizationURL()
	if err != nil {
		return "", err
	}
	return authURL, nil
}

// CompleteFederatedLogin finishes the flow from the provider callback and
// establishes a session.
func (m *Manager) CompleteFederatedLogin(ctx context.Context, code, state string) (identity.Identity, error) {
	if m.mode != ModeFederated {
		return identity.Identity{}, ErrUnsupportedOperation
	}

	result, err := m.federated.HandleCallback(ctx, code, state)
	if err != nil {
		log.Warn().Err(err).Msg("federated callback rejected")
		return identity.Identity{}, err
	}

	if err := m.setSession(result.AccessToken, result.RefreshToken, result.Identity); err != nil {
		return identity.Identity{}, err
	}
	log.Info().Str("user_id", result.Identity.ID).Msg("federated login completed")
	return result.Identity, nil
}

// Refresh rotates the session's tokens. Refresh is caller-initiated only;
// nothing in this package refreshes in the background. Under federated mode
// the provider owns token lifetimes and refresh is unsupported.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.mode != ModeLocal {
		return ErrUnsupportedOperation
	}

	current, ok := m.store.Current()
	if !ok {
		return ErrNotAuthenticated
	}

	pair, err := m.local.Refresh(current.RefreshToken)
	if err != nil {
		return err
	}
	return m.setSession(pair.AccessToken, pair.RefreshToken, pair.Identity)
}

// Logout destroys the client-held session. Under local mode the refresh token
// is revoked server-side; the access token stays valid until expiry.
func (m *Manager) Logout(ctx context.Context) error {
	if current, ok := m.store.Current(); ok && m.mode == ModeLocal && m.local != nil {
		m.local.Logout(current.RefreshToken)
	}
	return m.store.Clear()
}

// IsAuthenticated reports whether an unexpired session exists. Purely local.
func (m *Manager) IsAuthenticated() bool {
	return m.store.IsAuthenticated()
}

// CurrentUser returns the identity bound to the current session.
func (m *Manager) CurrentUser() (identity.Identity, bool) {
	current, ok := m.store.Current()
	if !ok {
		return identity.Identity{}, false
	}
	return current.Identity, true
}

// HasRole reports whether the current session's identity carries the role.
func (m *Manager) HasRole(role string) bool {
	current, ok := m.store.Current()
	if !ok {
		return false
	}
	return current.Identity.HasRole(role)
}

// Token returns the current bearer token, or empty when unauthenticated.
func (m *Manager) Token() string {
	return m.store.Token()
}

func (m *Manager) setSession(accessToken, refreshToken string, id identity.Identity) error {
	return m.store.Set(session.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Identity:     id,
		ObtainedAt:   m.nowFunc(),
	})
}
