package repository

import (
	"context"
	"testing"
	"time"

	"facegram/internal/models"
	"facegram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ListVisible(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	older := testutil.CreatePost(t, db, alice.UserID, "older", true, base.Add(-2*time.Hour))
	newer := testutil.CreatePost(t, db, bob.UserID, "newer", true, base)
	testutil.CreatePost(t, db, alice.UserID, "hidden", false, base.Add(time.Hour))

	require.NoError(t, db.Create(&models.LikeDislike{UserID: alice.UserID, PostID: newer.PostID, Liked: true}).Error)
	require.NoError(t, db.Create(&models.LikeDislike{UserID: bob.UserID, PostID: newer.PostID, Liked: false}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: newer.PostID, UserID: alice.UserID, Comment: "nice"}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: newer.PostID, UserID: bob.UserID, Comment: "thanks"}).Error)

	total, err := repo.CountVisible(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	posts, err := repo.ListVisible(ctx, alice.UserID, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, newer.PostID, posts[0].PostID, "newest first")
	assert.Equal(t, older.PostID, posts[1].PostID)
	for _, p := range posts {
		assert.True(t, p.ShowPost, "hidden posts never listed")
	}

	assert.Equal(t, "User bob", posts[0].Name)
	assert.Equal(t, int64(1), posts[0].LikesCount, "dislikes are not counted")
	assert.Equal(t, int64(2), posts[0].CommentsCount)
	assert.True(t, posts[0].LikedByCurrentUser)
	assert.False(t, posts[1].LikedByCurrentUser)

	asBob, err := repo.ListVisible(ctx, bob.UserID, 10, 0)
	require.NoError(t, err)
	assert.False(t, asBob[0].LikedByCurrentUser, "a disliked row is not a like")

	page2, err := repo.ListVisible(ctx, alice.UserID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, older.PostID, page2[0].PostID)
}

func TestPostRepository_ToggleLike(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.UserID, "p", true, time.Now())

	liked, count, err := repo.ToggleLike(ctx, bob.UserID, post.PostID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	liked, count, err = repo.ToggleLike(ctx, bob.UserID, post.PostID)
	require.NoError(t, err)
	assert.False(t, liked, "second like toggles off")
	assert.Equal(t, int64(0), count)

	liked, count, err = repo.ToggleLike(ctx, bob.UserID, post.PostID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	var rows int64
	require.NoError(t, db.Model(&models.LikeDislike{}).Where("userid = ? AND postid = ?", bob.UserID, post.PostID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows, "one row per user and post")

	likes, err := repo.CountLikes(ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), likes)
}

func TestPostRepository_VisibilityDeleteSearch(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice.UserID, "Sunset at the Beach", true, time.Now())
	require.NoError(t, db.Create(&models.Comment{PostID: post.PostID, UserID: alice.UserID, Comment: "c"}).Error)
	require.NoError(t, db.Create(&models.LikeDislike{PostID: post.PostID, UserID: alice.UserID, Liked: true}).Error)

	found, err := repo.Search(ctx, alice.UserID, "sunset", 20)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, repo.SetVisibility(ctx, post.PostID, false))
	found, err = repo.Search(ctx, alice.UserID, "sunset", 20)
	require.NoError(t, err)
	assert.Empty(t, found)

	own, err := repo.ListByUser(ctx, alice.UserID, alice.UserID, true)
	require.NoError(t, err)
	assert.Len(t, own, 1)
	public, err := repo.ListByUser(ctx, alice.UserID, 0, false)
	require.NoError(t, err)
	assert.Empty(t, public)

	got, err := repo.GetByID(ctx, post.PostID)
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, "User alice", got.User.Name)
	assert.Equal(t, []string{}, got.Images)

	require.NoError(t, repo.Delete(ctx, post.PostID))
	_, err = repo.GetByID(ctx, post.PostID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	var comments, likes int64
	db.Model(&models.Comment{}).Count(&comments)
	db.Model(&models.LikeDislike{}).Count(&likes)
	assert.Zero(t, comments)
	assert.Zero(t, likes)

	assert.True(t, models.IsCode(repo.Delete(ctx, post.PostID), models.CodeNotFound))
	assert.True(t, models.IsCode(repo.SetVisibility(ctx, post.PostID, true), models.CodeNotFound))
}
