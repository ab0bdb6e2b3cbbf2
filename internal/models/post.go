package models

import (
	"time"
)

// Post is a user submission with a title and zero or more images.
type Post struct {
	PostID     uint      `gorm:"column:postid;primaryKey" json:"postid"`
	CreatedBy  uint      `gorm:"column:createdby;not null;index" json:"createdby"`
	Title      string    `gorm:"not null" json:"title"`
	Images     []string  `gorm:"serializer:json;type:text" json:"images"`
	ShowPost   bool      `gorm:"column:showpost;not null;index" json:"showpost"`
	PostedTime time.Time `gorm:"column:postedtime;autoCreateTime;index" json:"postedtime"`

	// Author fields and aggregates are populated by list queries only.
	Name               string `gorm:"->;-:migration" json:"name,omitempty"`
	ProfilePic         string `gorm:"->;-:migration;column:profilepic" json:"profilepic,omitempty"`
	LikesCount         int64  `gorm:"->;-:migration;column:likes_count" json:"likesCount"`
	CommentsCount      int64  `gorm:"->;-:migration;column:comments_count" json:"commentsCount"`
	LikedByCurrentUser bool   `gorm:"->;-:migration;column:liked_by_current_user" json:"likedByCurrentUser"`

	User *PublicUser `gorm:"foreignKey:CreatedBy;references:UserID" json:"user,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}

// LikeDislike is the single reaction row a user holds on a post.
type LikeDislike struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"column:userid;not null;uniqueIndex:idx_likedislike_user_post" json:"userid"`
	PostID uint `gorm:"column:postid;not null;uniqueIndex:idx_likedislike_user_post;index" json:"postid"`
	Liked  bool `gorm:"not null" json:"liked"`
}

func (LikeDislike) TableName() string {
	return "likedislikes"
}

// Comment is a text reply on a post.
type Comment struct {
	CommentID uint      `gorm:"column:commentid;primaryKey" json:"commentid"`
	PostID    uint      `gorm:"column:postid;not null;index" json:"postid"`
	UserID    uint      `gorm:"column:userid;not null" json:"userid"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt time.Time `gorm:"column:createdat" json:"createdat"`

	User *PublicUser `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}
