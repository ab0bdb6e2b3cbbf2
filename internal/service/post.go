package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"facegram/internal/cache"
	"facegram/internal/models"
	"facegram/internal/repository"
)

const (
	DefaultPostsPage  = 1
	DefaultPostsLimit = 10
	MaxPostsLimit     = 50
	MaxImagesPerPost  = 5
	MaxTitleLength    = 500
	MaxCommentLength  = 2000
	postSearchLimit   = 20
)

// PostPage is one offset page of the feed.
type PostPage struct {
	TotalPosts int64         `json:"totalPosts"`
	Posts      []models.Post `json:"posts"`
}

// PostDetail is a single post with its author, comments and the viewer's
// relation to the author.
type PostDetail struct {
	models.Post
	Likes    int64            `json:"likes"`
	Follower bool             `json:"follower"`
	Comments []models.Comment `json:"comments"`
}

// LikeResult is the reaction state after a toggle.
type LikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

// CreatePostInput is the payload for a new post. Images are public paths
// already written by the upload service.
type CreatePostInput struct {
	UserID uint
	Title  string
	Images []string
}

// PostService provides feed, post and reaction logic.
type PostService struct {
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	followerRepo repository.FollowerRepository
	userRepo     repository.UserRepository
	store        cache.Store
}

// NewPostService returns a new PostService.
func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	followerRepo repository.FollowerRepository,
	userRepo repository.UserRepository,
	store cache.Store,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		followerRepo: followerRepo,
		userRepo:     userRepo,
		store:        store,
	}
}

// NormalizePage applies the feed defaults: page 1, limit 10, limit at most 50.
func NormalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = DefaultPostsPage
	}
	if limit <= 0 {
		limit = DefaultPostsLimit
	}
	if limit > MaxPostsLimit {
		limit = MaxPostsLimit
	}
	return page, limit
}

// ListPosts returns one page of visible posts as seen by userID, cached
// per viewer and page for 30s.
//
// Pages are computed with LIMIT/OFFSET, so a post inserted between two page
// requests shifts every later row by one: the next page repeats a row, and a
// deletion makes it skip one. The postid tiebreak only fixes order within a
// snapshot.
func (s *PostService) ListPosts(ctx context.Context, userID uint, page, limit int) (*PostPage, error) {
	page, limit = NormalizePage(page, limit)
	offset := (page - 1) * limit

	key := cache.PostsPageKey(userID, page, limit)
	return cache.Aside(ctx, s.store, key, cache.PostsPageTTL, func(ctx context.Context) (*PostPage, error) {
		total, err := s.postRepo.CountVisible(ctx)
		if err != nil {
			return nil, err
		}
		posts, err := s.postRepo.ListVisible(ctx, userID, limit, offset)
		if err != nil {
			return nil, err
		}
		return &PostPage{TotalPosts: total, Posts: nonNilPosts(posts)}, nil
	})
}

// GetPost returns a post with its details. Hidden posts are only visible to
// their creator.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*PostDetail, error) {
	post, err := s.visiblePost(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}

	likes, err := s.postRepo.CountLikes(ctx, postID)
	if err != nil {
		return nil, err
	}
	follower := false
	if viewerID != post.CreatedBy {
		follower, err = s.followerRepo.IsFollowing(ctx, viewerID, post.CreatedBy)
		if err != nil {
			return nil, err
		}
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	post.LikesCount = likes
	post.CommentsCount = int64(len(comments))
	if post.User != nil {
		post.Name = post.User.Name
		post.ProfilePic = post.User.ProfilePic
	}
	return &PostDetail{Post: *post, Likes: likes, Follower: follower, Comments: comments}, nil
}

// CreatePost stores a new visible post.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, models.NewValidationError("Title is too long")
	}
	if len(in.Images) > MaxImagesPerPost {
		return nil, models.NewValidationError("Too many images")
	}

	post := &models.Post{
		CreatedBy: in.UserID,
		Title:     title,
		Images:    in.Images,
		ShowPost:  true,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ToggleLike flips userID's reaction to the post.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	if postID == 0 {
		return nil, models.NewValidationError("Post ID is required")
	}
	if _, err := s.visiblePost(ctx, postID, userID); err != nil {
		return nil, err
	}
	liked, count, err := s.postRepo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, LikesCount: count}, nil
}

// AddComment appends a comment to a visible post.
func (s *PostService) AddComment(ctx context.Context, userID, postID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if postID == 0 || text == "" {
		return nil, models.NewValidationError("Comment and post ID are required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, models.NewValidationError("Comment is too long")
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.ShowPost {
		return nil, models.NewNotFoundMessage("Post not found")
	}

	comment := &models.Comment{PostID: postID, UserID: userID, Comment: text}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	if author, err := s.userRepo.GetByID(ctx, userID); err == nil {
		pub := author.Public()
		comment.User = &pub
	}
	return comment, nil
}

// HidePost toggles the visibility of the caller's own post and returns the
// message describing the new state.
func (s *PostService) HidePost(ctx context.Context, userID, postID uint) (string, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}
	if post.CreatedBy != userID {
		return "", models.NewForbiddenError("You can only hide your own posts")
	}
	show := !post.ShowPost
	if err := s.postRepo.SetVisibility(ctx, postID, show); err != nil {
		return "", err
	}
	if show {
		return "Post is now visible", nil
	}
	return "Post hidden successfully", nil
}

// DeletePost removes the caller's own post.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.CreatedBy != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, postID)
}

// SearchPosts matches visible post titles.
func (s *PostService) SearchPosts(ctx context.Context, viewerID uint, query string) ([]models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	posts, err := s.postRepo.Search(ctx, viewerID, query, postSearchLimit)
	if err != nil {
		return nil, err
	}
	return nonNilPosts(posts), nil
}

// UserPosts lists ownerID's posts. Hidden posts are included only for the owner.
func (s *PostService) UserPosts(ctx context.Context, ownerID, viewerID uint) ([]models.Post, error) {
	posts, err := s.postRepo.ListByUser(ctx, ownerID, viewerID, ownerID == viewerID)
	if err != nil {
		return nil, err
	}
	return nonNilPosts(posts), nil
}

func (s *PostService) visiblePost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.ShowPost && post.CreatedBy != viewerID {
		return nil, models.NewNotFoundMessage("Post not found")
	}
	return post, nil
}

func nonNilPosts(posts []models.Post) []models.Post {
	if posts == nil {
		return []models.Post{}
	}
	return posts
}
