package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleanstack/authcore/auth"
	"github.com/cleanstack/authcore/federated"
	"github.com/cleanstack/authcore/localauth"
	"github.com/cleanstack/authcore/session"
	"github.com/cleanstack/authcore/token"
	"github.com/cleanstack/authcore/users"
)

const (
	secretStr    = "test-signing-secret"
	demoEmail    = "user@example.com"
	demoPassword = "password123"
)

func newLocalManager(t *testing.T) (*auth.Manager, *session.Store) {
	t.Helper()

	userRepo := users.NewInMemoryRepo()
	require.NoError(t, users.SeedDemoUsers(userRepo))

	codec, err := token.NewCodec(secretStr)
	require.NoError(t, err)
	local, err := localauth.NewService(userRepo, codec)
	require.NoError(t, err)

	store, err := session.NewStore(session.NewMemoryStorage())
	require.NoError(t, err)

	manager, err := auth.NewManager(auth.ModeLocal, local, nil, store)
	require.NoError(t, err)
	return manager, store
}

func newFederatedManager(t *testing.T) *auth.Manager {
	t.Helper()

	fed, err := federated.NewClient(federated.Config{
		Authority:   "https://adfs.example.com/adfs",
		ClientID:    "test-client-1",
		RedirectURI: "http://localhost:3000/auth/callback",
	})
	require.NoError(t, err)

	store, err := session.NewStore(session.NewMemoryStorage())
	require.NoError(t, err)

	manager, err := auth.NewManager(auth.ModeFederated, nil, fed, store)
	require.NoError(t, err)
	return manager
}

func TestParseMode(t *testing.T) {
	mode, err := auth.ParseMode("local")
	require.NoError(t, err)
	require.Equal(t, auth.ModeLocal, mode)

	mode, err = auth.ParseMode("federated")
	require.NoError(t, err)
	require.Equal(t, auth.ModeFederated, mode)

	mode, err = auth.ParseMode("")
	require.NoError(t, err)
	require.Equal(t, auth.ModeNone, mode)

	_, err = auth.ParseMode("saml")
	require.Error(t, err)
}

func TestLocalLoginEstablishesSession(t *testing.T) {
	manager, _ := newLocalManager(t)

	require.False(t, manager.IsAuthenticated())

	id, err := manager.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)
	require.Equal(t, demoEmail, id.Email)

	require.True(t, manager.IsAuthenticated())
	require.NotEmpty(t, manager.Token())
	require.True(t, manager.HasRole(users.RoleUser))
	require.False(t, manager.HasRole(users.RoleAdmin))

	current, ok := manager.CurrentUser()
	require.True(t, ok)
	require.Equal(t, demoEmail, current.Email)
}

func TestLocalLoginBadCredentialsLeavesStoreUntouched(t *testing.T) {
	manager, _ := newLocalManager(t)

	_, err := manager.Login(context.Background(), demoEmail, "wrong")
	require.ErrorIs(t, err, localauth.ErrInvalidCredentials)
	require.False(t, manager.IsAuthenticated())
	require.Empty(t, manager.Token())
}

func TestFederatedManagerRejectsCredentials(t *testing.T) {
	manager := newFederatedManager(t)

	_, err := manager.Login(context.Background(), demoEmail, demoPassword)
	require.ErrorIs(t, err, auth.ErrUnsupportedOperation)
}

func TestFederatedManagerRejectsRegistration(t *testing.T) {
	manager := newFederatedManager(t)

	require.False(t, manager.SupportsRegistration())
	_, err := manager.Register(context.Background(), "a@b.com", "pw", "A B")
	require.ErrorIs(t, err, auth.ErrRegistrationNotSupported)
}

func TestFederatedManagerRejectsRefresh(t *testing.T) {
	manager := newFederatedManager(t)
	require.ErrorIs(t, manager.Refresh(context.Background()), auth.ErrUnsupportedOperation)
}

func TestBeginFederatedLogin(t *testing.T) {
	manager := newFederatedManager(t)

	authURL, err := manager.BeginFederatedLogin()
	require.NoError(t, err)
	require.Contains(t, authURL, "https://adfs.example.com/adfs/oauth2/authorize")
	require.Contains(t, authURL, "state=")
	require.Contains(t, authURL, "nonce=")
}

func TestBeginFederatedLoginLocalMode(t *testing.T) {
	manager, _ := newLocalManager(t)
	_, err := manager.BeginFederatedLogin()
	require.ErrorIs(t, err, auth.ErrUnsupportedOperation)
}

func TestRefreshRotatesSession(t *testing.T) {
	manager, store := newLocalManager(t)

	_, err := manager.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)
	before, ok := store.Current()
	require.True(t, ok)

	require.NoError(t, manager.Refresh(context.Background()))

	after, ok := store.Current()
	require.True(t, ok)
	require.NotEqual(t, before.RefreshToken, after.RefreshToken)
	require.Equal(t, before.Identity, after.Identity)
}

func TestRefreshWithoutSession(t *testing.T) {
	manager, _ := newLocalManager(t)
	require.ErrorIs(t, manager.Refresh(context.Background()), auth.ErrNotAuthenticated)
}

func TestLogoutClearsSessionAndRevokesRefreshToken(t *testing.T) {
	manager, store := newLocalManager(t)

	_, err := manager.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)
	current, ok := store.Current()
	require.True(t, ok)
	revoked := current.RefreshToken

	require.NoError(t, manager.Logout(context.Background()))
	require.False(t, manager.IsAuthenticated())

	// Logging back in then swapping in the revoked token proves revocation:
	// refresh with it must fail server-side, not just be forgotten locally.
	_, err = manager.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)
	live, ok := store.Current()
	require.True(t, ok)
	live.RefreshToken = revoked
	require.NoError(t, store.Set(*live))
	require.ErrorIs(t, manager.Refresh(context.Background()), localauth.ErrInvalidRefreshToken)
}

func TestSessionExpiryRewriteFlipsAuthentication(t *testing.T) {
	now := time.Now()
	clock := now

	userRepo := users.NewInMemoryRepo()
	require.NoError(t, users.SeedDemoUsers(userRepo))
	codec, err := token.NewCodec(secretStr, token.WithNowFunc(func() time.Time { return clock }))
	require.NoError(t, err)
	local, err := localauth.NewService(userRepo, codec,
		localauth.WithAccessTokenTTL(time.Hour),
		localauth.WithNowFunc(func() time.Time { return clock }),
	)
	require.NoError(t, err)
	store, err := session.NewStore(session.NewMemoryStorage(),
		session.WithStoreNowFunc(func() time.Time { return clock }),
	)
	require.NoError(t, err)
	manager, err := auth.NewManager(auth.ModeLocal, local, nil, store)
	require.NoError(t, err)

	_, err = manager.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)
	require.True(t, manager.IsAuthenticated())

	clock = now.Add(2 * time.Hour)
	require.False(t, manager.IsAuthenticated())
	_, ok := manager.CurrentUser()
	require.False(t, ok)
}
