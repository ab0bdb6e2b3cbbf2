// Package models contains the persisted domain types and the error taxonomy.
package models

import (
	"time"
)

// User is a registered account.
type User struct {
	UserID     uint      `gorm:"column:userid;primaryKey" json:"userid"`
	Name       string    `gorm:"not null" json:"name"`
	Username   string    `gorm:"uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	ProfilePic string    `gorm:"column:profilepic" json:"profilepic"`
	Bio        string    `json:"bio"`
	Verified   bool      `gorm:"not null" json:"verified"`
	CreatedAt  time.Time `gorm:"column:createdat" json:"createdat"`

	// Pending email verification code, cleared once verified.
	OTP        string     `gorm:"column:otp" json:"-"`
	OTPExpires *time.Time `gorm:"column:otpexpires" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Public returns the subset of fields other users may see.
func (u *User) Public() PublicUser {
	return PublicUser{
		UserID:     u.UserID,
		Name:       u.Name,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
	}
}

// PublicUser is a read-only projection of users used for embedding in
// posts, chat lists and follower lists.
type PublicUser struct {
	UserID     uint   `gorm:"column:userid;primaryKey" json:"userid"`
	Name       string `json:"name"`
	Username   string `json:"username,omitempty"`
	ProfilePic string `gorm:"column:profilepic" json:"profilepic"`
}

func (PublicUser) TableName() string {
	return "users"
}

// Follower records that FollowerID follows FollowID.
type Follower struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"column:followerid;not null;uniqueIndex:idx_follower_pair" json:"followerid"`
	FollowID   uint      `gorm:"column:followid;not null;uniqueIndex:idx_follower_pair;index" json:"followid"`
	CreatedAt  time.Time `gorm:"column:createdat" json:"createdat"`
}

func (Follower) TableName() string {
	return "followers"
}
