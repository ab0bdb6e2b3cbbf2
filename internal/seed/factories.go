package seed

import (
	"fmt"
	"strings"
	"time"

	"facegram/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password of every generated user.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder, fixtures and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker

	passwordHash string
	serial       int
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed seeds
// the faker from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed)}
}

// HashPassword returns the stored form of plain, hashing it with bcrypt
// unless SkipBcrypt is set.
func (f *Factory) HashPassword(plain string) (string, error) {
	if f.opts.SkipBcrypt {
		return plain, nil
	}
	if plain == DefaultPassword && f.passwordHash != "" {
		return f.passwordHash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.FastHash {
		cost = bcrypt.MinCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if plain == DefaultPassword {
		f.passwordHash = string(h)
	}
	return string(h), nil
}

// BuildUser constructs a verified user without persisting it. Usernames
// carry a serial suffix so a run never collides with itself.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	f.serial++
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := fmt.Sprintf("%s%s%d", strings.ToLower(first), strings.ToLower(last[:1]), f.serial)

	user := &models.User{
		Name:       first + " " + last,
		Username:   username,
		Email:      username + "@example.com",
		ProfilePic: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		Bio:        f.faker.Sentence(8),
		Verified:   true,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user with DefaultPassword unless an
// override sets another one.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	plain := user.Password
	if plain == "" {
		plain = DefaultPassword
	}
	hash, err := f.HashPassword(plain)
	if err != nil {
		return nil, err
	}
	user.Password = hash

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost constructs a visible post by author, backdated up to MaxDays.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute

	images := make([]string, f.faker.Number(0, 3))
	for i := range images {
		images[i] = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}

	post := &models.Post{
		CreatedBy:  author.UserID,
		Title:      strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 9)), "."),
		Images:     images,
		ShowPost:   f.faker.Number(1, 100) > f.opts.HiddenPercent,
		PostedTime: time.Now().Add(-back),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists posts in a single insert.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment persists a comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:  post.PostID,
		UserID:  user.UserID,
		Comment: f.faker.Sentence(f.faker.Number(4, 14)),
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists user's like on post.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	return f.db.Create(&models.LikeDislike{UserID: user.UserID, PostID: post.PostID, Liked: true}).Error
}

// Follow persists follower following followed.
func (f *Factory) Follow(follower, followed *models.User) error {
	if follower.UserID == followed.UserID {
		return fmt.Errorf("user %d cannot follow itself", follower.UserID)
	}
	return f.db.Create(&models.Follower{FollowerID: follower.UserID, FollowID: followed.UserID}).Error
}

// CreateChat persists the one-to-one chat between a and b.
func (f *Factory) CreateChat(a, b *models.User) (*models.Chat, error) {
	chat := models.NewChat(a.UserID, b.UserID)
	if err := f.db.Create(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

// CreateMessage persists a message from sender, who must be a participant.
func (f *Factory) CreateMessage(chat *models.Chat, sender *models.User, overrides ...func(*models.ChatMessage)) (*models.ChatMessage, error) {
	if !chat.HasParticipant(sender.UserID) {
		return nil, fmt.Errorf("user %d is not in chat %d", sender.UserID, chat.ChatID)
	}
	msg := &models.ChatMessage{
		ChatID:   chat.ChatID,
		SenderID: sender.UserID,
		Content:  f.faker.Sentence(f.faker.Number(2, 12)),
	}
	for _, override := range overrides {
		override(msg)
	}
	if err := f.db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// Pick returns n distinct indexes below max in random order.
func (f *Factory) Pick(max, n int) []int {
	if n > max {
		n = max
	}
	idx := make([]int, max)
	for i := range idx {
		idx[i] = i
	}
	f.faker.ShuffleAnySlice(idx)
	return idx[:n]
}
