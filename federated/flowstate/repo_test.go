package flowstate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleanstack/authcore/federated/flowstate"
)

func TestUpsertGetDelete(t *testing.T) {
	repo := flowstate.NewInMemoryRepo(time.Minute)

	require.NoError(t, repo.Upsert("state-1", &flowstate.FlowState{
		Nonce:     "nonce-1",
		CreatedAt: time.Now(),
	}))

	got, err := repo.Get("state-1")
	require.NoError(t, err)
	require.Equal(t, "nonce-1", got.Nonce)

	require.NoError(t, repo.Delete("state-1"))
	_, err = repo.Get("state-1")
	require.Error(t, err)
}

func TestGetUnknownState(t *testing.T) {
	repo := flowstate.NewInMemoryRepo(time.Minute)
	_, err := repo.Get("never-stored")
	require.Error(t, err)
}

func TestExpiredStateRejected(t *testing.T) {
	repo := flowstate.NewInMemoryRepo(time.Minute)

	require.NoError(t, repo.Upsert("state-1", &flowstate.FlowState{
		Nonce:     "nonce-1",
		CreatedAt: time.Now().Add(-2 * time.Minute),
	}))

	_, err := repo.Get("state-1")
	require.Error(t, err)
}
