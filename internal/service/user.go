package service

import (
	"context"
	"strings"
	"time"

	"facegram/internal/models"
	"facegram/internal/repository"
)

const userSearchLimit = 20

// Profile is a user's public fields with both sides of their follow graph.
type Profile struct {
	UserID     uint                `json:"userid"`
	Name       string              `json:"name"`
	Username   string              `json:"username"`
	ProfilePic string              `json:"profilepic"`
	Bio        string              `json:"bio"`
	CreatedAt  time.Time           `json:"createdat"`
	Followers  []models.PublicUser `json:"followers"`
	Following  []models.PublicUser `json:"following"`
}

// FollowResult reports the follow state after a toggle.
type FollowResult struct {
	Message   string `json:"message"`
	Following bool   `json:"following"`
}

// UserService provides profile, follow and user search logic.
type UserService struct {
	userRepo     repository.UserRepository
	followerRepo repository.FollowerRepository
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, followerRepo repository.FollowerRepository) *UserService {
	return &UserService{userRepo: userRepo, followerRepo: followerRepo}
}

// Profile returns userID's public profile.
func (s *UserService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.followerRepo.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.followerRepo.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		UserID:     user.UserID,
		Name:       user.Name,
		Username:   user.Username,
		ProfilePic: user.ProfilePic,
		Bio:        user.Bio,
		CreatedAt:  user.CreatedAt,
		Followers:  nonNilUsers(followers),
		Following:  nonNilUsers(following),
	}, nil
}

// ToggleFollow follows followID, or unfollows if already following.
func (s *UserService) ToggleFollow(ctx context.Context, followerID, followID uint) (*FollowResult, error) {
	if followID == 0 {
		return nil, models.NewValidationError("User ID is required")
	}
	if followerID == followID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, followID); err != nil {
		return nil, err
	}

	following, err := s.followerRepo.Toggle(ctx, followerID, followID)
	if err != nil {
		return nil, err
	}
	if following {
		return &FollowResult{Message: "Followed successfully", Following: true}, nil
	}
	return &FollowResult{Message: "Unfollowed successfully", Following: false}, nil
}

// Search finds users by name or username, excluding the requester.
func (s *UserService) Search(ctx context.Context, name string, requesterID uint) ([]models.PublicUser, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("Search name is required")
	}
	users, err := s.userRepo.Search(ctx, name, requesterID, userSearchLimit)
	if err != nil {
		return nil, err
	}
	return nonNilUsers(users), nil
}

func nonNilUsers(users []models.PublicUser) []models.PublicUser {
	if users == nil {
		return []models.PublicUser{}
	}
	return users
}
