package repository

import (
	"context"

	"facegram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowerRepository defines persistence operations for follow edges.
type FollowerRepository interface {
	IsFollowing(ctx context.Context, followerID, followID uint) (bool, error)
	Toggle(ctx context.Context, followerID, followID uint) (bool, error)
	Followers(ctx context.Context, userID uint) ([]models.PublicUser, error)
	Following(ctx context.Context, userID uint) ([]models.PublicUser, error)
}

type followerRepository struct {
	db *gorm.DB
}

// NewFollowerRepository returns a new FollowerRepository implementation.
func NewFollowerRepository(db *gorm.DB) FollowerRepository {
	return &followerRepository{db: db}
}

func (r *followerRepository) IsFollowing(ctx context.Context, followerID, followID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follower{}).
		Where("followerid = ? AND followid = ?", followerID, followID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Toggle removes the edge if it exists and creates it otherwise. It reports
// whether followerID follows followID afterwards.
func (r *followerRepository) Toggle(ctx context.Context, followerID, followID uint) (bool, error) {
	following := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("followerid = ? AND followid = ?", followerID, followID).Delete(&models.Follower{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		following = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follower{FollowerID: followerID, FollowID: followID}).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return following, nil
}

// Followers lists users that follow userID.
func (r *followerRepository) Followers(ctx context.Context, userID uint) ([]models.PublicUser, error) {
	var users []models.PublicUser
	err := r.db.WithContext(ctx).
		Joins("JOIN followers ON followers.followerid = users.userid").
		Where("followers.followid = ?", userID).
		Order("followers.createdat DESC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Following lists users that userID follows.
func (r *followerRepository) Following(ctx context.Context, userID uint) ([]models.PublicUser, error) {
	var users []models.PublicUser
	err := r.db.WithContext(ctx).
		Joins("JOIN followers ON followers.followid = users.userid").
		Where("followers.followerid = ?", userID).
		Order("followers.createdat DESC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
