package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"facegram/internal/cache"
	"facegram/internal/models"
	"facegram/internal/repository"
)

// MaxMessageLength bounds a chat message in runes.
const MaxMessageLength = 10000

// ChatListItem is a chat as listed for one of its participants.
type ChatListItem struct {
	models.Chat
	OtherUser models.PublicUser `json:"otherUser"`
}

// MessageWithParticipants is a stored message plus the chat's participant
// pair, the shape the realtime relay forwards.
type MessageWithParticipants struct {
	models.ChatMessage
	Participants []uint `json:"participants"`
}

// SendMessageInput is the input for sending a message.
type SendMessageInput struct {
	ChatID   uint
	SenderID uint
	Content  string
}

// ChatService provides one-to-one chat logic.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	store    cache.Store
}

// NewChatService returns a new ChatService.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, store cache.Store) *ChatService {
	return &ChatService{chatRepo: chatRepo, userRepo: userRepo, store: store}
}

// CreateOrGetChat returns the chat between sender and receiver, creating
// it if needed. The bool is true only when this call created it.
func (s *ChatService) CreateOrGetChat(ctx context.Context, senderID, receiverID uint) (*models.Chat, bool, error) {
	if receiverID == 0 {
		return nil, false, models.NewValidationError("Receiver ID is required for creating a one-to-one chat.")
	}
	if senderID == receiverID {
		return nil, false, models.NewValidationError("You cant chat with yourself.")
	}
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		return nil, false, err
	}
	return s.chatRepo.CreateOrGet(ctx, senderID, receiverID)
}

// SendMessage stores a message from a chat participant.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*MessageWithParticipants, error) {
	// Content is stored verbatim; blank-only content counts as missing.
	if in.ChatID == 0 || in.SenderID == 0 || strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("All Fields Required")
	}
	if utf8.RuneCountInString(in.Content) > MaxMessageLength {
		return nil, models.NewValidationError("Message is too long")
	}

	chat, err := s.chatRepo.GetByID(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(in.SenderID) {
		return nil, models.NewValidationError("Sender is not a participant of this chat.")
	}

	msg := &models.ChatMessage{ChatID: chat.ChatID, SenderID: in.SenderID, Content: in.Content}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return &MessageWithParticipants{ChatMessage: *msg, Participants: chat.Participants}, nil
}

// ListMessages returns the chat's messages oldest first. Non-participants
// get the same not-found error as a missing chat.
func (s *ChatService) ListMessages(ctx context.Context, chatID, requesterID uint) ([]models.ChatMessage, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(requesterID) {
		return nil, models.NewNotFoundError("Chat", chatID)
	}

	return cache.Aside(ctx, s.store, cache.MessagesKey(chatID), cache.MessagesTTL, func(ctx context.Context) ([]models.ChatMessage, error) {
		msgs, err := s.chatRepo.ListMessages(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if msgs == nil {
			msgs = []models.ChatMessage{}
		}
		return msgs, nil
	})
}

// ListChatsForUser returns userID's chats with the other participant's
// public profile, loading all other participants in one query.
func (s *ChatService) ListChatsForUser(ctx context.Context, userID uint) ([]ChatListItem, error) {
	return cache.Aside(ctx, s.store, cache.ChatListKey(userID), cache.ChatListTTL, func(ctx context.Context) ([]ChatListItem, error) {
		chats, err := s.chatRepo.ListForUser(ctx, userID)
		if err != nil {
			return nil, err
		}

		ids := make([]uint, 0, len(chats))
		seen := make(map[uint]struct{}, len(chats))
		for i := range chats {
			other := chats[i].OtherParticipant(userID)
			if _, ok := seen[other]; !ok {
				seen[other] = struct{}{}
				ids = append(ids, other)
			}
		}
		users, err := s.userRepo.GetPublicByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[uint]models.PublicUser, len(users))
		for _, u := range users {
			byID[u.UserID] = u
		}

		items := make([]ChatListItem, 0, len(chats))
		for _, chat := range chats {
			other := chat.OtherParticipant(userID)
			u, ok := byID[other]
			if !ok {
				u = models.PublicUser{UserID: other}
			}
			items = append(items, ChatListItem{Chat: chat, OtherUser: u})
		}
		return items, nil
	})
}
