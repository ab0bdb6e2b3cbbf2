package server

import (
	"facegram/internal/notifications"
	"facegram/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// requireUpgrade rejects plain HTTP requests to the websocket endpoint.
func (s *Server) requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebsocketHandler handles GET /ws. Each connection becomes a relay client
// owned by the session user; rooms are joined through setup and join-chat
// frames.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(uint)
		ctx := observability.WithUserID(s.shutdownCtx, userID)
		if rid, ok := conn.Locals("requestid").(string); ok {
			ctx = observability.WithRequestID(ctx, rid)
		}

		client := notifications.NewClient(conn, userID)
		s.relay.Register(ctx, client)

		go client.WritePump()
		client.ReadPump(ctx, s.relay)
	})
}
