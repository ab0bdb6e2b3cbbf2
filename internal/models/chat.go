package models

import (
	"time"

	"gorm.io/gorm"
)

// Chat is a one-to-one conversation. The participant pair is stored sorted
// so (a, b) and (b, a) map to the same row under idx_chat_pair.
type Chat struct {
	ChatID       uint      `gorm:"column:chatid;primaryKey" json:"chatid"`
	UserLow      uint      `gorm:"column:userlow;not null;uniqueIndex:idx_chat_pair" json:"-"`
	UserHigh     uint      `gorm:"column:userhigh;not null;uniqueIndex:idx_chat_pair;index" json:"-"`
	Participants []uint    `gorm:"-" json:"participants"`
	CreatedAt    time.Time `gorm:"column:createdat" json:"createdat"`
}

func (Chat) TableName() string {
	return "chats"
}

// NewChat returns a chat between a and b with the pair normalized.
func NewChat(a, b uint) *Chat {
	c := &Chat{UserLow: a, UserHigh: b}
	c.normalize()
	return c
}

// SortedPair orders two user ids ascending.
func SortedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

func (c *Chat) normalize() {
	c.UserLow, c.UserHigh = SortedPair(c.UserLow, c.UserHigh)
	c.Participants = []uint{c.UserLow, c.UserHigh}
}

// BeforeCreate keeps the stored pair sorted regardless of caller order.
func (c *Chat) BeforeCreate(_ *gorm.DB) error {
	c.normalize()
	return nil
}

// AfterFind fills Participants from the stored pair.
func (c *Chat) AfterFind(_ *gorm.DB) error {
	c.Participants = []uint{c.UserLow, c.UserHigh}
	return nil
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Chat) HasParticipant(userID uint) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID, or 0.
func (c *Chat) OtherParticipant(userID uint) uint {
	return OtherParticipant(c.Participants, userID)
}

// OtherParticipant picks the first id in participants that differs from userID.
func OtherParticipant(participants []uint, userID uint) uint {
	for _, id := range participants {
		if id != userID {
			return id
		}
	}
	return 0
}

// ChatMessage is one immutable message in a chat.
type ChatMessage struct {
	MessageID uint      `gorm:"column:messageid;primaryKey" json:"messageid"`
	ChatID    uint      `gorm:"column:chatid;not null;index:idx_chatmessage_chat_created,priority:1" json:"chatid"`
	SenderID  uint      `gorm:"column:senderid;not null" json:"senderid"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"column:createdat;index:idx_chatmessage_chat_created,priority:2" json:"createdat"`
}

func (ChatMessage) TableName() string {
	return "chatmessage"
}
