package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipStore_GrantAndGet(t *testing.T) {
	store := newTestMembershipStore(t)

	require.NoError(t, store.Grant(&PortfolioMemberRecord{
		PortfolioID: "p1", UserID: "mia", AccessLevel: string(LevelMaker), GrantedBy: "olivia",
	}))

	got, err := store.Get("p1", "mia")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, string(LevelMaker), got.AccessLevel)
	assert.NotEmpty(t, got.ID)

	missing, err := store.Get("p1", "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMembershipStore_GrantUpdatesExisting(t *testing.T) {
	store := newTestMembershipStore(t)

	require.NoError(t, store.Grant(&PortfolioMemberRecord{
		PortfolioID: "p1", UserID: "mia", AccessLevel: string(LevelViewer), GrantedBy: "olivia",
	}))
	require.NoError(t, store.Grant(&PortfolioMemberRecord{
		PortfolioID: "p1", UserID: "mia", AccessLevel: string(LevelMaker), GrantedBy: "olivia",
	}))

	got, err := store.Get("p1", "mia")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, string(LevelMaker), got.AccessLevel)

	members, err := store.ListByPortfolio("p1")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestMembershipStore_AdminNotStorable(t *testing.T) {
	store := newTestMembershipStore(t)

	err := store.Grant(&PortfolioMemberRecord{
		PortfolioID: "p1", UserID: "mia", AccessLevel: string(LevelAdmin),
	})
	assert.Error(t, err)

	err = store.Grant(&PortfolioMemberRecord{
		PortfolioID: "p1", UserID: "mia", AccessLevel: "superuser",
	})
	assert.Error(t, err)
}

func TestMembershipStore_Revoke(t *testing.T) {
	store := newTestMembershipStore(t)

	require.NoError(t, store.Grant(&PortfolioMemberRecord{
		PortfolioID: "p1", UserID: "mia", AccessLevel: string(LevelChecker),
	}))
	require.NoError(t, store.Revoke("p1", "mia"))

	got, err := store.Get("p1", "mia")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Revoking a missing membership is not an error.
	assert.NoError(t, store.Revoke("p1", "mia"))
}
