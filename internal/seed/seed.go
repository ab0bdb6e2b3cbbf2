// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"facegram/internal/models"
	"facegram/internal/observability"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	Users           int
	PostsPerUser    int
	FollowsPerUser  int
	LikesPerPost    int
	CommentsPerPost int
	ChatsPerUser    int
	MessagesPerChat int

	// HiddenPercent of generated posts are stored with showpost=false.
	HiddenPercent int
	// MaxDays bounds how far back post timestamps are spread.
	MaxDays int

	// SkipBcrypt stores passwords in plain text; only for throwaway databases.
	SkipBcrypt bool
	// FastHash hashes with the minimum bcrypt cost.
	FastHash bool
	// RandSeed makes a run reproducible when non-zero.
	RandSeed int64
}

// DefaultOptions is a small populated demo dataset.
func DefaultOptions() Options {
	return Options{
		Users:           25,
		PostsPerUser:    4,
		FollowsPerUser:  5,
		LikesPerPost:    6,
		CommentsPerPost: 3,
		ChatsPerUser:    2,
		MessagesPerChat: 8,
		HiddenPercent:   10,
		MaxDays:         90,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
	Chats    int
	Messages int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d follows=%d posts=%d likes=%d comments=%d chats=%d messages=%d",
		s.Users, s.Follows, s.Posts, s.Likes, s.Comments, s.Chats, s.Messages)
}

// Seeder populates a database through a Factory.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder returns a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Factory exposes the seeder's factory for fixtures and tests.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// ClearAll deletes every row, children first so foreign keys hold.
func (s *Seeder) ClearAll(ctx context.Context) error {
	observability.GlobalLogger.InfoContext(ctx, "clearing existing data")
	tables := []any{
		&models.ChatMessage{},
		&models.Chat{},
		&models.Comment{},
		&models.LikeDislike{},
		&models.Post{},
		&models.Follower{},
		&models.User{},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return fmt.Errorf("clear %T: %w", table, err)
			}
		}
		return nil
	})
}

// Run generates the whole social graph: users, follows, posts with likes
// and comments, and chats with messages.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	log := observability.GlobalLogger

	users, err := s.SeedUsers(s.opts.Users)
	if err != nil {
		return sum, err
	}
	sum.Users = len(users)
	log.InfoContext(ctx, "seeded users", slog.Int("count", sum.Users))

	if sum.Follows, err = s.SeedFollows(users); err != nil {
		return sum, err
	}

	posts, err := s.SeedPosts(users)
	if err != nil {
		return sum, err
	}
	sum.Posts = len(posts)
	log.InfoContext(ctx, "seeded posts", slog.Int("count", sum.Posts))

	if sum.Likes, sum.Comments, err = s.SeedEngagement(users, posts); err != nil {
		return sum, err
	}
	if sum.Chats, sum.Messages, err = s.SeedChats(users); err != nil {
		return sum, err
	}

	log.InfoContext(ctx, "seeding complete", slog.String("summary", sum.String()))
	return sum, nil
}

// SeedUsers creates count users.
func (s *Seeder) SeedUsers(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return users, err
		}
		users = append(users, u)
	}
	return users, nil
}

// SeedFollows has every user follow up to FollowsPerUser others.
func (s *Seeder) SeedFollows(users []*models.User) (int, error) {
	created := 0
	for i, u := range users {
		followed := 0
		for _, j := range s.factory.Pick(len(users), s.opts.FollowsPerUser+1) {
			if j == i || followed == s.opts.FollowsPerUser {
				continue
			}
			if err := s.factory.Follow(u, users[j]); err != nil {
				return created, err
			}
			followed++
			created++
		}
	}
	return created, nil
}

// SeedPosts creates PostsPerUser posts for every user in one batch.
func (s *Seeder) SeedPosts(users []*models.User) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(users)*s.opts.PostsPerUser)
	for _, u := range users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			posts = append(posts, s.factory.BuildPost(u))
		}
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	return posts, nil
}

// SeedEngagement adds likes and comments from random users to every post.
func (s *Seeder) SeedEngagement(users []*models.User, posts []*models.Post) (likes, comments int, err error) {
	for _, p := range posts {
		for _, i := range s.factory.Pick(len(users), s.opts.LikesPerPost) {
			if err = s.factory.CreateLike(users[i], p); err != nil {
				return likes, comments, err
			}
			likes++
		}
		for _, i := range s.factory.Pick(len(users), s.opts.CommentsPerPost) {
			if _, err = s.factory.CreateComment(users[i], p); err != nil {
				return likes, comments, err
			}
			comments++
		}
	}
	return likes, comments, nil
}

// SeedChats opens up to ChatsPerUser chats per user with MessagesPerChat
// alternating messages. A pair is only chatted once.
func (s *Seeder) SeedChats(users []*models.User) (chats, messages int, err error) {
	seen := make(map[[2]uint]struct{})
	for i, u := range users {
		opened := 0
		for _, j := range s.factory.Pick(len(users), len(users)) {
			if opened >= s.opts.ChatsPerUser {
				break
			}
			if j == i {
				continue
			}
			low, high := models.SortedPair(u.UserID, users[j].UserID)
			if _, dup := seen[[2]uint{low, high}]; dup {
				continue
			}
			seen[[2]uint{low, high}] = struct{}{}

			chat, cerr := s.factory.CreateChat(u, users[j])
			if cerr != nil {
				return chats, messages, cerr
			}
			chats++
			opened++

			pair := [2]*models.User{u, users[j]}
			for m := 0; m < s.opts.MessagesPerChat; m++ {
				if _, err = s.factory.CreateMessage(chat, pair[m%2]); err != nil {
					return chats, messages, err
				}
				messages++
			}
		}
	}
	return chats, messages, nil
}
