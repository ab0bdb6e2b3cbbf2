package cache

import (
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%s"
	PostsPageKeyPrefix = "posts:%d:%d:%d"
	MessagesKeyPrefix  = "messages:%d"
	ChatListKeyPrefix  = "chatList:%d"
	OAuthStatePrefix   = "oauth:state:%s"
	RateLimitPrefix    = "ratelimit:%s:%s"
)

const (
	UserTTL       = 24 * time.Hour
	PostsPageTTL  = 30 * time.Second
	MessagesTTL   = 60 * time.Second
	ChatListTTL   = 120 * time.Second
	OAuthStateTTL = 10 * time.Minute
)

// UserKey caches a resolved session user by email.
func UserKey(email string) string {
	return fmt.Sprintf(UserKeyPrefix, email)
}

// PostsPageKey caches one page of the feed as seen by userID.
func PostsPageKey(userID uint, page, limit int) string {
	return fmt.Sprintf(PostsPageKeyPrefix, userID, page, limit)
}

func MessagesKey(chatID uint) string {
	return fmt.Sprintf(MessagesKeyPrefix, chatID)
}

func ChatListKey(userID uint) string {
	return fmt.Sprintf(ChatListKeyPrefix, userID)
}

func OAuthStateKey(state string) string {
	return fmt.Sprintf(OAuthStatePrefix, state)
}

// RateLimitKey counts requests to resource by the caller id.
func RateLimitKey(resource, id string) string {
	return fmt.Sprintf(RateLimitPrefix, resource, id)
}
