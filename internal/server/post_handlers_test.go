package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"facegram/internal/models"
	"facegram/internal/service"
	"facegram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPosts(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		testutil.CreatePost(t, env.db, alice.UserID, fmt.Sprintf("post %d", i), true, base.Add(time.Duration(i)*time.Minute))
	}
	testutil.CreatePost(t, env.db, alice.UserID, "hidden", false, base)
	token := env.tokenFor(alice)

	resp := env.do(http.MethodGet, "/api/posts?page=1&limit=2", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[service.PostPage](t, resp)
	assert.Equal(t, int64(3), page.TotalPosts)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "post 2", page.Posts[0].Title)
	assert.Equal(t, "User alice", page.Posts[0].Name)

	resp = env.do(http.MethodGet, "/api/posts?page=2&limit=2", nil, token)
	page = decode[service.PostPage](t, resp)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "post 0", page.Posts[0].Title)

	// Missing paging parameters fall back to the defaults.
	resp = env.do(http.MethodGet, "/api/posts", nil, token)
	page = decode[service.PostPage](t, resp)
	assert.Len(t, page.Posts, 3)
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	token := env.tokenFor(alice)
	png := testutil.TinyPNG(t, 20, 10)

	withSession := func(req *http.Request) *http.Request {
		req.AddCookie(&http.Cookie{Name: tokenCookie, Value: token})
		return req
	}

	t.Run("with images", func(t *testing.T) {
		req := withSession(multipartRequest(t, http.MethodPost, "/api/create",
			map[string]string{"title": "Sunset"},
			[]formFile{
				{field: "images", name: "a.png", content: png},
				{field: "images", name: "b.png", content: png},
			}))
		resp := env.send(req)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode[struct {
			Message string      `json:"message"`
			Post    models.Post `json:"post"`
		}](t, resp)
		assert.Equal(t, "Post created successfully", body.Message)
		assert.Equal(t, "Sunset", body.Post.Title)
		assert.Equal(t, alice.UserID, body.Post.CreatedBy)
		require.Len(t, body.Post.Images, 2)
		for _, img := range body.Post.Images {
			_, err := os.Stat(filepath.Join(env.cfg.UploadDir, filepath.Base(img)))
			assert.NoError(t, err)
		}
	})

	t.Run("json without images", func(t *testing.T) {
		resp := env.do(http.MethodPost, "/api/create", map[string]string{"title": "Text only"}, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing title", func(t *testing.T) {
		req := withSession(multipartRequest(t, http.MethodPost, "/api/create", map[string]string{"title": "  "}, nil))
		assertError(t, env.send(req), http.StatusBadRequest, "Title is required")
	})

	t.Run("too many images", func(t *testing.T) {
		files := make([]formFile, service.MaxImagesPerPost+1)
		for i := range files {
			files[i] = formFile{field: "images", name: fmt.Sprintf("%d.png", i), content: png}
		}
		req := withSession(multipartRequest(t, http.MethodPost, "/api/create", map[string]string{"title": "Many"}, files))
		assertError(t, env.send(req), http.StatusBadRequest, "Too many images")
	})

	t.Run("not an image", func(t *testing.T) {
		req := withSession(multipartRequest(t, http.MethodPost, "/api/create",
			map[string]string{"title": "Sneaky"},
			[]formFile{{field: "images", name: "notes.txt", content: []byte("hello")}}))
		assertError(t, env.send(req), http.StatusBadRequest, "Error: Images only!")
	})

	t.Run("failed upload keeps no files", func(t *testing.T) {
		before, _ := os.ReadDir(env.cfg.UploadDir)
		req := withSession(multipartRequest(t, http.MethodPost, "/api/create",
			map[string]string{"title": "Half"},
			[]formFile{
				{field: "images", name: "ok.png", content: png},
				{field: "images", name: "bad.png", content: []byte("not png")},
			}))
		assertError(t, env.send(req), http.StatusBadRequest, "Error: Images only!")
		after, _ := os.ReadDir(env.cfg.UploadDir)
		assert.Len(t, after, len(before))
	})
}

func TestGetPost(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	post := testutil.CreatePost(t, env.db, alice.UserID, "Hello", true, time.Now())
	hidden := testutil.CreatePost(t, env.db, alice.UserID, "Secret", false, time.Now())

	resp := env.do(http.MethodGet, fmt.Sprintf("/api/post/%d", post.PostID), nil, env.tokenFor(bob))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Message string             `json:"message"`
		Post    service.PostDetail `json:"post"`
	}](t, resp)
	assert.Equal(t, "success", body.Message)
	assert.Equal(t, "Hello", body.Post.Title)
	require.NotNil(t, body.Post.User)
	assert.Equal(t, "User alice", body.Post.User.Name)
	assert.False(t, body.Post.Follower)

	resp = env.do(http.MethodGet, fmt.Sprintf("/api/post/%d", hidden.PostID), nil, env.tokenFor(bob))
	assertError(t, resp, http.StatusNotFound, "Post not found")

	resp = env.do(http.MethodGet, fmt.Sprintf("/api/post/%d", hidden.PostID), nil, env.tokenFor(alice))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(http.MethodGet, "/api/post/abc", nil, env.tokenFor(bob))
	assertError(t, resp, http.StatusBadRequest, "Invalid post ID")
}

func TestLikeAndCommentPost(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	post := testutil.CreatePost(t, env.db, alice.UserID, "Hello", true, time.Now())
	token := env.tokenFor(bob)

	type likeBody struct {
		Message    string `json:"message"`
		Liked      bool   `json:"liked"`
		LikesCount int64  `json:"likesCount"`
	}

	resp := env.do(http.MethodPost, "/api/post/like", map[string]any{"postid": post.PostID}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	like := decode[likeBody](t, resp)
	assert.Equal(t, likeBody{Message: "Post liked", Liked: true, LikesCount: 1}, like)

	// A string id is accepted too, and a second like toggles back.
	resp = env.do(http.MethodPost, "/api/post/like", map[string]any{"postid": fmt.Sprint(post.PostID)}, token)
	like = decode[likeBody](t, resp)
	assert.Equal(t, likeBody{Message: "Post unliked", Liked: false, LikesCount: 0}, like)

	resp = env.do(http.MethodPost, "/api/post/like", map[string]any{"postid": 9999}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodPost, "/api/post/comment", map[string]any{"postid": post.PostID, "comment": "Nice!"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := decode[struct {
		Comment models.Comment `json:"comment"`
	}](t, resp)
	assert.Equal(t, "Nice!", comment.Comment.Comment)
	assert.Equal(t, bob.UserID, comment.Comment.UserID)

	resp = env.do(http.MethodPost, "/api/post/comment", map[string]any{"postid": post.PostID, "comment": ""}, token)
	assertError(t, resp, http.StatusBadRequest, "Comment and post ID are required")

	resp = env.do(http.MethodGet, fmt.Sprintf("/api/post/%d", post.PostID), nil, token)
	detail := decode[struct {
		Post service.PostDetail `json:"post"`
	}](t, resp)
	require.Len(t, detail.Post.Comments, 1)
	assert.Equal(t, int64(0), detail.Post.Likes)
}

func TestHideAndDeletePost(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	post := testutil.CreatePost(t, env.db, alice.UserID, "Mine", true, time.Now())
	hidePath := fmt.Sprintf("/api/post/hide/%d", post.PostID)
	deletePath := fmt.Sprintf("/api/post/delete/%d", post.PostID)

	resp := env.do(http.MethodGet, hidePath, nil, env.tokenFor(bob))
	assertError(t, resp, http.StatusForbidden, "You can only hide your own posts")

	resp = env.do(http.MethodGet, hidePath, nil, env.tokenFor(alice))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Post hidden successfully", decode[map[string]string](t, resp)["message"])

	resp = env.do(http.MethodGet, hidePath, nil, env.tokenFor(alice))
	assert.Equal(t, "Post is now visible", decode[map[string]string](t, resp)["message"])

	resp = env.do(http.MethodDelete, deletePath, nil, env.tokenFor(bob))
	assertError(t, resp, http.StatusForbidden, "You can only delete your own posts")

	resp = env.do(http.MethodDelete, deletePath, nil, env.tokenFor(alice))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(http.MethodGet, fmt.Sprintf("/api/post/%d", post.PostID), nil, env.tokenFor(alice))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchPosts(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	testutil.CreatePost(t, env.db, alice.UserID, "Mountain sunrise", true, time.Now())
	testutil.CreatePost(t, env.db, alice.UserID, "City at night", true, time.Now())
	testutil.CreatePost(t, env.db, alice.UserID, "Hidden sunrise", false, time.Now())
	token := env.tokenFor(alice)

	resp := env.do(http.MethodGet, "/api/posts/search?q=SUNRISE", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	posts := decode[[]models.Post](t, resp)
	require.Len(t, posts, 1)
	assert.Equal(t, "Mountain sunrise", posts[0].Title)

	resp = env.do(http.MethodGet, "/api/posts/search?q=nothing-matches", nil, token)
	assert.Empty(t, decode[[]models.Post](t, resp))

	resp = env.do(http.MethodGet, "/api/posts/search", nil, token)
	assertError(t, resp, http.StatusBadRequest, "Search query is required")
}
