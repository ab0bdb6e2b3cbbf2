// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"facegram/internal/database"
	"facegram/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database bound to a single
// connection so every query sees the same schema.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// TestPassword is the plain-text password of every user created by CreateUser.
const TestPassword = "Passw0rd!"

var testPasswordHash []byte

// CreateUser inserts a verified user whose username, name and email derive from handle.
func CreateUser(t testing.TB, db *gorm.DB, handle string) *models.User {
	t.Helper()

	if testPasswordHash == nil {
		h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		testPasswordHash = h
	}

	u := &models.User{
		Name:     "User " + handle,
		Username: handle,
		Email:    handle + "@example.com",
		Password: string(testPasswordHash),
		Verified: true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", handle, err)
	}
	return u
}

// CreatePost inserts a post by author, visible when show is true.
func CreatePost(t testing.TB, db *gorm.DB, author uint, title string, show bool, postedAt time.Time) *models.Post {
	t.Helper()

	p := &models.Post{CreatedBy: author, Title: title, Images: []string{}, ShowPost: show, PostedTime: postedAt}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return p
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
