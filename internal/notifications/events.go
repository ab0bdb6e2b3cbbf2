package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"facegram/internal/observability"
)

// Inbound and outbound event names.
const (
	EventSetup           = "setup"
	EventConnected       = "connected"
	EventJoinChat        = "join-chat"
	EventLeaveChat       = "leave-chat"
	EventNewMessage      = "new-message"
	EventMessageReceived = "message-received"
	EventTyping          = "typing"
	EventStopTyping      = "stop-typing"
	EventError           = "error"
)

const (
	msgInvalidFormat = "Invalid message format"
	msgSetupFailed   = "Error setting up the connection"
	msgJoinFailed    = "Error joining the chat room"
	msgSendFailed    = "Error sending the message"
	msgTypingFailed  = "Error sending the typing status"
)

// ID decodes a numeric identifier sent either as a JSON number or a string.
type ID uint

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil || n == 0 {
		return fmt.Errorf("invalid id %q", b)
	}
	*id = ID(n)
	return nil
}

type setupData struct {
	UserID ID     `json:"userid"`
	Name   string `json:"name"`
}

type messageData struct {
	SenderID     ID   `json:"senderid"`
	Participants []ID `json:"participants"`
}

// recipient is the participant that is not the sender.
func (m messageData) recipient() (uint, error) {
	if m.SenderID == 0 {
		return 0, errors.New("missing senderid")
	}
	for _, p := range m.Participants {
		if p != m.SenderID {
			return uint(p), nil
		}
	}
	return 0, errors.New("no recipient among participants")
}

// HandleFrame dispatches one inbound frame from c. Failures are reported
// only to c as an error event.
func (r *Relay) HandleFrame(ctx context.Context, c *Client, raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil || f.Event == "" {
		r.sendError(c, msgInvalidFormat)
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(f.Event).Inc()

	switch f.Event {
	case EventSetup:
		r.handleSetup(ctx, c, f.Data)
	case EventJoinChat:
		r.handleRoomChange(ctx, c, f, true)
	case EventLeaveChat:
		r.handleRoomChange(ctx, c, f, false)
	case EventNewMessage:
		r.handleNewMessage(ctx, c, f.Data)
	case EventTyping, EventStopTyping:
		r.handleTyping(ctx, c, f)
	default:
		r.log.LogEvent(ctx, c.ID, f.Event, "")
	}
}

func (r *Relay) handleSetup(ctx context.Context, c *Client, data json.RawMessage) {
	var in setupData
	err := json.Unmarshal(data, &in)
	if err == nil && in.UserID == 0 {
		err = errors.New("missing userid")
	}
	if err != nil {
		r.log.LogError(ctx, c.ID, err, EventSetup)
		r.sendError(c, msgSetupFailed)
		return
	}
	if r.verifySetup && uint(in.UserID) != c.UserID {
		r.log.LogError(ctx, c.ID, fmt.Errorf("setup userid %d does not match session user %d", in.UserID, c.UserID), EventSetup)
		r.sendError(c, msgSetupFailed)
		return
	}

	room := UserRoom(uint(in.UserID))
	r.Join(c, room)
	r.log.LogEvent(ctx, c.ID, EventSetup, room)
	frame, _ := EncodeFrame(EventConnected, nil)
	c.TrySend(frame)
}

func (r *Relay) handleRoomChange(ctx context.Context, c *Client, f Frame, join bool) {
	var chatID ID
	if err := json.Unmarshal(f.Data, &chatID); err != nil {
		r.log.LogError(ctx, c.ID, err, f.Event)
		r.sendError(c, msgJoinFailed)
		return
	}
	room := ChatRoom(uint(chatID))
	if join {
		r.Join(c, room)
	} else {
		r.Leave(c, room)
	}
	r.log.LogEvent(ctx, c.ID, f.Event, room)
}

// handleNewMessage forwards the payload unchanged to the recipient's
// private room. A recipient with no connections is a silent drop.
func (r *Relay) handleNewMessage(ctx context.Context, c *Client, data json.RawMessage) {
	var msg messageData
	if err := json.Unmarshal(data, &msg); err != nil {
		r.log.LogError(ctx, c.ID, err, EventNewMessage)
		r.sendError(c, msgSendFailed)
		return
	}
	recipient, err := msg.recipient()
	if err != nil {
		r.log.LogError(ctx, c.ID, err, EventNewMessage)
		r.sendError(c, msgSendFailed)
		return
	}
	room := UserRoom(recipient)
	r.Emit(ctx, room, EventMessageReceived, data, c)
	r.log.LogEvent(ctx, c.ID, EventNewMessage, room)
}

func (r *Relay) handleTyping(ctx context.Context, c *Client, f Frame) {
	var chatID ID
	if err := json.Unmarshal(f.Data, &chatID); err != nil {
		r.log.LogError(ctx, c.ID, err, f.Event)
		r.sendError(c, msgTypingFailed)
		return
	}
	room := ChatRoom(uint(chatID))
	r.Emit(ctx, room, f.Event, f.Data, c)
}

func (r *Relay) sendError(c *Client, message string) {
	frame, err := EncodeFrame(EventError, message)
	if err != nil {
		return
	}
	c.TrySend(frame)
}
