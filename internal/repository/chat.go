package repository

import (
	"context"

	"facegram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines persistence operations for chats and their messages.
type ChatRepository interface {
	CreateOrGet(ctx context.Context, a, b uint) (*models.Chat, bool, error)
	GetByID(ctx context.Context, chatID uint) (*models.Chat, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Chat, error)
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, chatID uint) ([]models.ChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository returns a new ChatRepository implementation.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// CreateOrGet inserts the chat for the pair unless one exists, relying on
// idx_chat_pair instead of a read-then-write check. The bool reports whether
// this call created the row.
func (r *chatRepository) CreateOrGet(ctx context.Context, a, b uint) (*models.Chat, bool, error) {
	chat := models.NewChat(a, b)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "userlow"}, {Name: "userhigh"}},
			DoNothing: true,
		}).
		Create(chat)
	if res.Error != nil {
		return nil, false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 1 && chat.ChatID != 0 {
		return chat, true, nil
	}

	var existing models.Chat
	err := r.db.WithContext(ctx).
		Where("userlow = ? AND userhigh = ?", chat.UserLow, chat.UserHigh).
		First(&existing).Error
	if err != nil {
		return nil, false, models.NewInternalError(err)
	}
	return &existing, false, nil
}

func (r *chatRepository) GetByID(ctx context.Context, chatID uint) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).First(&chat, chatID).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("Chat", chatID))
	}
	return &chat, nil
}

// ListForUser returns every chat userID participates in, most recent first.
func (r *chatRepository) ListForUser(ctx context.Context, userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.WithContext(ctx).
		Where("userlow = ? OR userhigh = ?", userID, userID).
		Order("createdat DESC").
		Order("chatid DESC").
		Find(&chats).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return chats, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListMessages returns a chat's messages in creation order.
func (r *chatRepository) ListMessages(ctx context.Context, chatID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("chatid = ?", chatID).
		Order("createdat ASC").
		Order("messageid ASC").
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}
