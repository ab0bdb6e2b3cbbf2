package service

import (
	"context"
	"strings"
	"testing"

	"facegram/internal/cache"
	"facegram/internal/models"
	"facegram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatService_CreateOrGetChat(t *testing.T) {
	f := newFixture(t)
	svc := f.chatService()
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")

	t.Run("Validation", func(t *testing.T) {
		_, _, err := svc.CreateOrGetChat(ctx, alice.UserID, 0)
		assert.Equal(t, "Receiver ID is required for creating a one-to-one chat.", models.AsAppError(err).Message)

		_, _, err = svc.CreateOrGetChat(ctx, alice.UserID, alice.UserID)
		assert.Equal(t, "You cant chat with yourself.", models.AsAppError(err).Message)

		_, _, err = svc.CreateOrGetChat(ctx, alice.UserID, 9999)
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})

	t.Run("Idempotent", func(t *testing.T) {
		chat, created, err := svc.CreateOrGetChat(ctx, alice.UserID, bob.UserID)
		require.NoError(t, err)
		assert.True(t, created)

		again, created, err := svc.CreateOrGetChat(ctx, bob.UserID, alice.UserID)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, chat.ChatID, again.ChatID)
	})
}

func TestChatService_SendAndListMessages(t *testing.T) {
	f := newFixture(t)
	svc := f.chatService()
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	carol := testutil.CreateUser(t, f.db, "carol")

	chat, _, err := svc.CreateOrGetChat(ctx, alice.UserID, bob.UserID)
	require.NoError(t, err)

	for _, in := range []SendMessageInput{
		{ChatID: 0, SenderID: alice.UserID, Content: "hi"},
		{ChatID: chat.ChatID, SenderID: 0, Content: "hi"},
		{ChatID: chat.ChatID, SenderID: alice.UserID, Content: "   "},
	} {
		_, err := svc.SendMessage(ctx, in)
		assert.Equal(t, "All Fields Required", models.AsAppError(err).Message)
	}

	_, err = svc.SendMessage(ctx, SendMessageInput{ChatID: chat.ChatID, SenderID: carol.UserID, Content: "hi"})
	assert.Equal(t, "Sender is not a participant of this chat.", models.AsAppError(err).Message)

	_, err = svc.SendMessage(ctx, SendMessageInput{ChatID: 9999, SenderID: alice.UserID, Content: "hi"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, err = svc.SendMessage(ctx, SendMessageInput{ChatID: chat.ChatID, SenderID: alice.UserID, Content: strings.Repeat("x", MaxMessageLength+1)})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	msg, err := svc.SendMessage(ctx, SendMessageInput{ChatID: chat.ChatID, SenderID: alice.UserID, Content: " hello "})
	require.NoError(t, err)
	assert.Equal(t, " hello ", msg.Content, "content is stored verbatim")
	assert.ElementsMatch(t, []uint{alice.UserID, bob.UserID}, msg.Participants)

	_, err = svc.SendMessage(ctx, SendMessageInput{ChatID: chat.ChatID, SenderID: bob.UserID, Content: "hey"})
	require.NoError(t, err)

	msgs, err := svc.ListMessages(ctx, chat.ChatID, bob.UserID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, " hello ", msgs[0].Content)
	assert.Equal(t, "hey", msgs[1].Content)

	_, err = svc.ListMessages(ctx, chat.ChatID, carol.UserID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "outsiders cannot tell the chat exists")

	// Reads stay on the cached snapshot until the TTL passes.
	_, err = svc.SendMessage(ctx, SendMessageInput{ChatID: chat.ChatID, SenderID: alice.UserID, Content: "third"})
	require.NoError(t, err)
	msgs, err = svc.ListMessages(ctx, chat.ChatID, alice.UserID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	f.clock.Advance(cache.MessagesTTL)
	msgs, err = svc.ListMessages(ctx, chat.ChatID, alice.UserID)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
}

func TestChatService_ListChatsForUser(t *testing.T) {
	f := newFixture(t)
	svc := f.chatService()
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	carol := testutil.CreateUser(t, f.db, "carol")

	_, _, err := svc.CreateOrGetChat(ctx, alice.UserID, bob.UserID)
	require.NoError(t, err)
	_, _, err = svc.CreateOrGetChat(ctx, carol.UserID, alice.UserID)
	require.NoError(t, err)

	items, err := svc.ListChatsForUser(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	names := []string{items[0].OtherUser.Name, items[1].OtherUser.Name}
	assert.ElementsMatch(t, []string{"User bob", "User carol"}, names)
	for _, item := range items {
		assert.NotEqual(t, alice.UserID, item.OtherUser.UserID)
		assert.True(t, item.HasParticipant(alice.UserID))
	}

	cached, err := f.store.Get(ctx, cache.ChatListKey(alice.UserID))
	require.NoError(t, err)
	assert.Contains(t, string(cached), `"otherUser"`)

	bobs, err := svc.ListChatsForUser(ctx, bob.UserID)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, alice.UserID, bobs[0].OtherUser.UserID)
}
