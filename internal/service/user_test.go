package service

import (
	"context"
	"testing"

	"facegram/internal/models"
	"facegram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ProfileAndFollow(t *testing.T) {
	f := newFixture(t)
	svc := f.userService()
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")

	_, err := svc.ToggleFollow(ctx, alice.UserID, alice.UserID)
	assert.Equal(t, "You cannot follow yourself", models.AsAppError(err).Message)

	_, err = svc.ToggleFollow(ctx, alice.UserID, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	res, err := svc.ToggleFollow(ctx, alice.UserID, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, &FollowResult{Message: "Followed successfully", Following: true}, res)

	profile, err := svc.Profile(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Username)
	require.Len(t, profile.Followers, 1)
	assert.Equal(t, alice.UserID, profile.Followers[0].UserID)
	assert.NotNil(t, profile.Following)
	assert.Empty(t, profile.Following)

	res, err = svc.ToggleFollow(ctx, alice.UserID, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Unfollowed successfully", res.Message)

	_, err = svc.Profile(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserService_Search(t *testing.T) {
	f := newFixture(t)
	svc := f.userService()
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	testutil.CreateUser(t, f.db, "alicia")
	testutil.CreateUser(t, f.db, "bob")

	_, err := svc.Search(ctx, "  ", alice.UserID)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	users, err := svc.Search(ctx, "ALI", alice.UserID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alicia", users[0].Username)
}
