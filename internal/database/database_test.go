package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"facegram/internal/config"
	"facegram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		d, err := Dialector(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Name())
	})

	t.Run("postgres", func(t *testing.T) {
		d, err := Dialector(&config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432"})
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Dialector(&config.Config{DBDriver: "oracle"})
		assert.Error(t, err)
	})
}

func TestConnect_SQLiteMigrates(t *testing.T) {
	db, err := Connect(&config.Config{Env: "test", DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m), "table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Chat{}, "idx_chat_pair"))
	assert.True(t, db.Migrator().HasIndex(&models.LikeDislike{}, "idx_likedislike_user_post"))
	assert.False(t, db.Migrator().HasColumn(&models.Post{}, "likes_count"), "aggregates are not stored")

	user := &models.User{Name: "A", Username: "a", Email: "a@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCustomGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Empty(t, buf.String(), "fast successful queries are not logged at warn level")

	l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 2", 0 }, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "record not found is ignored")

	l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 3", 0 }, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 4", 0 }, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 5", 0 }, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestRegisterMetrics(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	assert.NoError(t, db.Create(&models.Comment{PostID: 1, UserID: 1, Comment: "hi"}).Error)
	var comments []models.Comment
	assert.NoError(t, db.Find(&comments).Error)
	assert.Len(t, comments, 1)
}

func TestSchemaStatus(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	before, err := SchemaStatus(db)
	require.NoError(t, err)
	require.Len(t, before, len(Models()))
	assert.Equal(t, "users", before[0].Table)
	for _, s := range before {
		assert.False(t, s.Exists, s.Table)
	}

	require.NoError(t, Migrate(db))
	after, err := SchemaStatus(db)
	require.NoError(t, err)
	for _, s := range after {
		assert.True(t, s.Exists, s.Table)
	}
	assert.Equal(t, "chatmessage", after[len(after)-1].Table)
}
