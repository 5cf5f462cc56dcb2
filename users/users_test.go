package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cleanstack/authcore/users"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := users.HashPassword("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)

	require.True(t, users.CheckPasswordHash("password123", hash))
	require.False(t, users.CheckPasswordHash("password124", hash))
}

func TestInMemoryRepo(t *testing.T) {
	repo := users.NewInMemoryRepo()

	user := &users.User{
		ID:    "user-1",
		Email: "John.Doe@Example.com",
		Name:  "John Doe",
		Roles: []string{users.RoleUser},
	}
	require.NoError(t, repo.Upsert(user))

	// Email lookup is case-insensitive.
	byEmail, err := repo.GetByEmail("john.doe@example.com")
	require.NoError(t, err)
	require.Equal(t, "user-1", byEmail.ID)

	byID, err := repo.GetByID("user-1")
	require.NoError(t, err)
	require.Equal(t, byEmail.Email, byID.Email)

	_, err = repo.GetByEmail("unknown@example.com")
	require.ErrorIs(t, err, users.ErrNotFound)
	_, err = repo.GetByID("unknown")
	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestSeedDemoUsers(t *testing.T) {
	repo := users.NewInMemoryRepo()
	require.NoError(t, users.SeedDemoUsers(repo))

	regular, err := repo.GetByEmail("user@example.com")
	require.NoError(t, err)
	require.Equal(t, []string{users.RoleUser}, regular.Roles)
	require.True(t, users.CheckPasswordHash("password123", regular.PasswordHash))

	admin, err := repo.GetByEmail("admin@example.com")
	require.NoError(t, err)
	require.Contains(t, admin.Roles, users.RoleAdmin)
}
