package localauth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleanstack/authcore/localauth"
	"github.com/cleanstack/authcore/token"
	"github.com/cleanstack/authcore/users"
)

const (
	secretStr    = "test-signing-secret"
	demoEmail    = "user@example.com"
	demoAdmin    = "admin@example.com"
	demoPassword = "password123"
)

// countingRefreshRepo wraps the in-memory repo and counts every call so tests
// can assert which validation paths touch the store.
type countingRefreshRepo struct {
	inner localauth.RefreshTokenRepo
	calls int
}

func (c *countingRefreshRepo) Upsert(rt *localauth.StoredRefreshToken) error {
	c.calls++
	return c.inner.Upsert(rt)
}

func (c *countingRefreshRepo) Get(t string) (*localauth.StoredRefreshToken, error) {
	c.calls++
	return c.inner.Get(t)
}

func (c *countingRefreshRepo) Delete(t string) error {
	c.calls++
	return c.inner.Delete(t)
}

func (c *countingRefreshRepo) DeleteByUserID(userID string) error {
	c.calls++
	return c.inner.DeleteByUserID(userID)
}

func newTestService(t *testing.T, options ...localauth.ServiceOption) *localauth.Service {
	t.Helper()

	repo := users.NewInMemoryRepo()
	require.NoError(t, users.SeedDemoUsers(repo))

	codec, err := token.NewCodec(secretStr)
	require.NoError(t, err)

	service, err := localauth.NewService(repo, codec, options...)
	require.NoError(t, err)
	return service
}

func TestAuthenticateDemoUsers(t *testing.T) {
	service := newTestService(t)

	id, err := service.Authenticate(demoEmail, demoPassword)
	require.NoError(t, err)
	require.Equal(t, demoEmail, id.Email)
	require.Equal(t, []string{users.RoleUser}, id.Roles)

	admin, err := service.Authenticate(demoAdmin, demoPassword)
	require.NoError(t, err)
	require.Contains(t, admin.Roles, users.RoleAdmin)
	require.Contains(t, admin.Roles, users.RoleUser)
}

func TestAuthenticateFailsClosed(t *testing.T) {
	service := newTestService(t)

	_, err := service.Authenticate(demoEmail, "wrong-password")
	require.ErrorIs(t, err, localauth.ErrInvalidCredentials)

	_, err = service.Authenticate("nobody@example.com", demoPassword)
	require.ErrorIs(t, err, localauth.ErrInvalidCredentials)
}

func TestIssueSessionReturnsValidPair(t *testing.T) {
	now := time.Now()
	service := newTestService(t, localauth.WithNowFunc(func() time.Time { return now }))

	id, err := service.Authenticate(demoEmail, demoPassword)
	require.NoError(t, err)

	pair, err := service.IssueSession(id)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.True(t, token.ValidateRefreshTokenShape(pair.RefreshToken))
	require.Equal(t, now.Add(60*time.Minute).Unix(), pair.ExpiresAt.Unix())
	require.Equal(t, id, pair.Identity)
}

func TestRefreshRotatesToken(t *testing.T) {
	service := newTestService(t)

	id, err := service.Authenticate(demoEmail, demoPassword)
	require.NoError(t, err)
	pair, err := service.IssueSession(id)
	require.NoError(t, err)

	rotated, err := service.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	require.Equal(t, id.Email, rotated.Identity.Email)

	// The superseded token must be dead.
	_, err = service.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, localauth.ErrInvalidRefreshToken)
}

func TestRefreshShapeCheckSkipsStore(t *testing.T) {
	counting := &countingRefreshRepo{inner: localauth.NewInMemoryRefreshTokenRepo()}
	service := newTestService(t, localauth.WithRefreshTokenRepo(counting))

	_, err := service.Refresh("short-token")
	require.ErrorIs(t, err, localauth.ErrInvalidRefreshToken)
	require.Zero(t, counting.calls, "malformed refresh token must not touch the store")
}

func TestRefreshUnknownToken(t *testing.T) {
	service := newTestService(t)

	wellShaped, err := token.GenerateRefreshToken()
	require.NoError(t, err)

	_, err = service.Refresh(wellShaped)
	require.ErrorIs(t, err, localauth.ErrInvalidRefreshToken)
}

func TestRefreshExpiredToken(t *testing.T) {
	now := time.Now()
	clock := &now
	service := newTestService(t,
		localauth.WithRefreshTokenTTL(24*time.Hour),
		localauth.WithNowFunc(func() time.Time { return *clock }),
	)

	id, err := service.Authenticate(demoEmail, demoPassword)
	require.NoError(t, err)
	pair, err := service.IssueSession(id)
	require.NoError(t, err)

	later := now.Add(25 * time.Hour)
	clock = &later

	_, err = service.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, localauth.ErrInvalidRefreshToken)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	service := newTestService(t)

	id, err := service.Authenticate(demoEmail, demoPassword)
	require.NoError(t, err)
	pair, err := service.IssueSession(id)
	require.NoError(t, err)

	service.Logout(pair.RefreshToken)

	_, err = service.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, localauth.ErrInvalidRefreshToken)
}

func TestRegister(t *testing.T) {
	service := newTestService(t)

	id, err := service.Register("new.user@example.com", "s3cret-pass", "New User")
	require.NoError(t, err)
	require.NotEmpty(t, id.ID)
	require.Equal(t, []string{users.RoleUser}, id.Roles)

	// Registered credentials must authenticate.
	authed, err := service.Authenticate("new.user@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, id.ID, authed.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := newTestService(t)

	_, err := service.Register(demoEmail, "whatever", "Imposter")
	require.ErrorIs(t, err, localauth.ErrEmailTaken)
}
