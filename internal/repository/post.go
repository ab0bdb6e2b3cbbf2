package repository

import (
	"context"
	"errors"
	"strings"

	"facegram/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	CountVisible(ctx context.Context) (int64, error)
	ListVisible(ctx context.Context, viewerID uint, limit, offset int) ([]models.Post, error)
	ListByUser(ctx context.Context, ownerID, viewerID uint, includeHidden bool) ([]models.Post, error)
	Search(ctx context.Context, viewerID uint, query string, limit int) ([]models.Post, error)
	CountLikes(ctx context.Context, postID uint) (int64, error)
	SetVisibility(ctx context.Context, postID uint, show bool) error
	Delete(ctx context.Context, postID uint) error
	ToggleLike(ctx context.Context, userID, postID uint) (bool, int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post.Images == nil {
		post.Images = []string{}
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundMessage("Post not found"))
	}
	return &post, nil
}

func (r *postRepository) CountVisible(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("showpost = ?", true).Count(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

// ListVisible returns one offset page of visible posts, newest first.
func (r *postRepository) ListVisible(ctx context.Context, viewerID uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.withDetails(r.db.WithContext(ctx), viewerID).
		Where("posts.showpost = ?", true).
		Order("posts.postedtime DESC").
		Order("posts.postid DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, ownerID, viewerID uint, includeHidden bool) ([]models.Post, error) {
	var posts []models.Post
	q := r.withDetails(r.db.WithContext(ctx), viewerID).Where("posts.createdby = ?", ownerID)
	if !includeHidden {
		q = q.Where("posts.showpost = ?", true)
	}
	if err := q.Order("posts.postedtime DESC").Order("posts.postid DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Search matches visible post titles case-insensitively.
func (r *postRepository) Search(ctx context.Context, viewerID uint, query string, limit int) ([]models.Post, error) {
	var posts []models.Post
	like := "%" + strings.ToLower(query) + "%"
	err := r.withDetails(r.db.WithContext(ctx), viewerID).
		Where("posts.showpost = ? AND LOWER(posts.title) LIKE ?", true, like).
		Order("posts.postedtime DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// withDetails joins the author and adds like, comment and liked-by-viewer
// aggregates in a single query.
func (r *postRepository) withDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	return db.Model(&models.Post{}).
		Select("posts.*, users.name AS name, users.profilepic AS profilepic, "+
			"(SELECT COUNT(*) FROM likedislikes ld WHERE ld.postid = posts.postid AND ld.liked = ?) AS likes_count, "+
			"(SELECT COUNT(*) FROM comments c WHERE c.postid = posts.postid) AS comments_count, "+
			"EXISTS (SELECT 1 FROM likedislikes ul WHERE ul.postid = posts.postid AND ul.userid = ? AND ul.liked = ?) AS liked_by_current_user",
			true, viewerID, true).
		Joins("JOIN users ON users.userid = posts.createdby")
}

func (r *postRepository) CountLikes(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LikeDislike{}).
		Where("postid = ? AND liked = ?", postID, true).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) SetVisibility(ctx context.Context, postID uint, show bool) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("postid = ?", postID).Update("showpost", show)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundMessage("Post not found")
	}
	return nil
}

// Delete removes the post with its comments and reactions.
func (r *postRepository) Delete(ctx context.Context, postID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("postid = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("postid = ?", postID).Delete(&models.LikeDislike{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, postID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, models.NewNotFoundMessage("Post not found"))
	}
	return nil
}

// ToggleLike flips the user's reaction on a post: no row or a disliked row
// becomes liked, a liked row becomes disliked. It returns the new state and
// the post's like count after the change.
func (r *postRepository) ToggleLike(ctx context.Context, userID, postID uint) (bool, int64, error) {
	var (
		liked bool
		count int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.LikeDislike
		err := tx.Where("userid = ? AND postid = ?", userID, postID).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			row = models.LikeDislike{UserID: userID, PostID: postID, Liked: true}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			liked = !row.Liked
			if err := tx.Model(&row).Update("liked", liked).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.LikeDislike{}).
			Where("postid = ? AND liked = ?", postID, true).
			Count(&count).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			// A concurrent first reaction won the insert; apply the toggle to its row.
			return r.ToggleLike(ctx, userID, postID)
		}
		return false, 0, models.NewInternalError(err)
	}
	return liked, count, nil
}
