package service

import (
	"sync"
	"testing"
	"time"

	"facegram/internal/cache"
	"facegram/internal/repository"
	"facegram/internal/testutil"
	"facegram/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-at-least-32-characters"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	db       *gorm.DB
	clock    *testClock
	store    *cache.MemoryStore
	users    repository.UserRepository
	follows  repository.FollowerRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	chats    repository.ChatRepository
	sessions *SessionResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	clock := &testClock{t: time.Now()}
	f := &fixture{
		db:       db,
		clock:    clock,
		store:    cache.NewMemoryStoreWithClock(clock.Now),
		users:    repository.NewUserRepository(db),
		follows:  repository.NewFollowerRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		chats:    repository.NewChatRepository(db),
	}
	f.sessions = NewSessionResolver(f.users, f.store, testSecret, time.Hour)
	f.sessions.now = clock.Now
	return f
}

func (f *fixture) postService() *PostService {
	return NewPostService(f.posts, f.comments, f.follows, f.users, f.store)
}

func (f *fixture) chatService() *ChatService {
	return NewChatService(f.chats, f.users, f.store)
}

func (f *fixture) userService() *UserService {
	return NewUserService(f.users, f.follows)
}

func (f *fixture) authService(opts ...AuthOption) *AuthService {
	opts = append([]AuthOption{WithHashCost(bcrypt.MinCost)}, opts...)
	svc := NewAuthService(f.users, f.sessions, f.store, validation.New(), opts...)
	svc.now = f.clock.Now
	return svc
}
