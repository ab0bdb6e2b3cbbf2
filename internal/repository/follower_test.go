package repository

import (
	"context"
	"testing"

	"facegram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowerRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFollowerRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")

	following, err := repo.Toggle(ctx, alice.UserID, bob.UserID)
	require.NoError(t, err)
	assert.True(t, following)

	_, err = repo.Toggle(ctx, carol.UserID, bob.UserID)
	require.NoError(t, err)

	ok, err := repo.IsFollowing(ctx, alice.UserID, bob.UserID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsFollowing(ctx, bob.UserID, alice.UserID)
	require.NoError(t, err)
	assert.False(t, ok, "follow edges are directed")

	followers, err := repo.Followers(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	followingList, err := repo.Following(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, followingList, 1)
	assert.Equal(t, bob.UserID, followingList[0].UserID)
	assert.Equal(t, "User bob", followingList[0].Name)

	following, err = repo.Toggle(ctx, alice.UserID, bob.UserID)
	require.NoError(t, err)
	assert.False(t, following)

	followers, err = repo.Followers(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Len(t, followers, 1)
}
