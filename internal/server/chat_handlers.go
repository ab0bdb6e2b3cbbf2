package server

import (
	"facegram/internal/models"
	"facegram/internal/observability"
	"facegram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateChat handles POST /api/create/chat
// @Summary Create or get a one-to-one chat
// @Description Idempotent: returns the existing chat between the two users when there is one.
// @Tags chats
// @Accept json
// @Produce json
// @Param request body object{recieverid=int} true "Receiver (receiverid is also accepted)"
// @Success 201 {object} object{message=string,chatid=int}
// @Success 200 {object} object{message=string,chatid=int}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /create/chat [post]
func (s *Server) CreateChat(c *fiber.Ctx) error {
	var req struct {
		Legacy     flexID `json:"recieverid"`
		ReceiverID flexID `json:"receiverid"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	receiverID := uint(req.ReceiverID)
	if receiverID == 0 {
		receiverID = uint(req.Legacy)
	}

	chat, created, err := s.chatService.CreateOrGetChat(c.UserContext(), currentUserID(c), receiverID)
	if err != nil {
		return respondError(c, err)
	}

	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Chat already exists between the specified users.",
			"chatid":  chat.ChatID,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Chat created successfully.",
		"chatid":  chat.ChatID,
	})
}

// SendMessage handles POST /api/send/message
// @Summary Send a chat message
// @Description The sender is the session user. Only persists the message; realtime delivery comes from the client's new-message frame.
// @Tags chats
// @Accept json
// @Produce json
// @Param request body object{chatid=int,content=string} true "Message"
// @Success 201 {object} object{message=string,chatData=service.MessageWithParticipants}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /send/message [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		ChatID   flexID `json:"chatid"`
		SenderID flexID `json:"senderid"`
		Content  string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	senderID := currentUserID(c)
	if req.SenderID != 0 && uint(req.SenderID) != senderID {
		return respondError(c, models.NewValidationError("Sender mismatch"))
	}

	msg, err := s.chatService.SendMessage(c.UserContext(), service.SendMessageInput{
		ChatID:   uint(req.ChatID),
		SenderID: senderID,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	observability.MessagesSent.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "success",
		"chatData": msg,
	})
}

// GetChatList handles GET /api/get/chatlist
// @Summary List chats
// @Tags chats
// @Produce json
// @Success 200 {object} object{message=string,chatList=[]service.ChatListItem}
// @Router /get/chatlist [get]
func (s *Server) GetChatList(c *fiber.Ctx) error {
	chats, err := s.chatService.ListChatsForUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "success", "chatList": chats})
}

// GetMessages handles GET /api/chat/:chatid/messages
// @Summary Chat history
// @Description Oldest first. Only participants can read a chat.
// @Tags chats
// @Produce json
// @Param chatid path int true "Chat ID"
// @Success 200 {object} object{message=string,chats=[]models.ChatMessage}
// @Failure 404 {object} models.ErrorResponse
// @Router /chat/{chatid}/messages [get]
func (s *Server) GetMessages(c *fiber.Ctx) error {
	chatID, err := parseID(c, "chatid")
	if err != nil {
		return nil
	}

	msgs, err := s.chatService.ListMessages(c.UserContext(), chatID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "success", "chats": msgs})
}
