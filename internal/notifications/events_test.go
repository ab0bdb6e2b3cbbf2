package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func send(t *testing.T, r *Relay, c *Client, event string, data any) {
	t.Helper()
	raw, err := EncodeFrame(event, data)
	require.NoError(t, err)
	r.HandleFrame(context.Background(), c, raw)
}

func TestHandleFrame_SetupAndMessage(t *testing.T) {
	r := NewRelay()
	alice, bob := newTestClient(1), newTestClient(2)

	send(t, r, alice, EventSetup, map[string]any{"userid": 1, "name": "Alice"})
	assert.Equal(t, EventConnected, nextFrame(t, alice).Event)
	send(t, r, bob, EventSetup, map[string]any{"userid": "2", "name": "Bob"})
	assert.Equal(t, EventConnected, nextFrame(t, bob).Event)

	send(t, r, bob, EventJoinChat, 10)
	assert.Equal(t, []string{ChatRoom(10), UserRoom(2)}, r.Rooms(bob))

	msg := json.RawMessage(`{"messageid":5,"chatid":10,"senderid":1,"content":"hello","participants":[1,2]}`)
	send(t, r, alice, EventNewMessage, msg)

	got := nextFrame(t, bob)
	assert.Equal(t, EventMessageReceived, got.Event)
	assert.JSONEq(t, string(msg), string(got.Data), "payload is forwarded unmodified")
	assertNoFrame(t, alice)
}

func TestHandleFrame_MessageToOfflineRecipient(t *testing.T) {
	r := NewRelay()
	alice := newTestClient(1)
	send(t, r, alice, EventSetup, map[string]any{"userid": 1})
	nextFrame(t, alice)

	send(t, r, alice, EventNewMessage, map[string]any{"senderid": 1, "participants": []uint{1, 9}, "content": "anyone?"})
	assertNoFrame(t, alice)
}

func TestHandleFrame_Errors(t *testing.T) {
	r := NewRelay()
	c := newTestClient(1)

	tests := []struct {
		name  string
		raw   string
		error string
	}{
		{"Invalid JSON", `{not json`, "Invalid message format"},
		{"Missing Event", `{"data":1}`, "Invalid message format"},
		{"Setup Without User", `{"event":"setup","data":{"name":"x"}}`, "Error setting up the connection"},
		{"Setup Bad User", `{"event":"setup","data":{"userid":"abc"}}`, "Error setting up the connection"},
		{"Join Bad Chat", `{"event":"join-chat","data":{"id":1}}`, "Error joining the chat room"},
		{"Message Without Participants", `{"event":"new-message","data":{"senderid":1}}`, "Error sending the message"},
		{"Message To Self Only", `{"event":"new-message","data":{"senderid":1,"participants":[1,1]}}`, "Error sending the message"},
		{"Typing Bad Chat", `{"event":"typing","data":{"id":1}}`, "Error sending the typing status"},
		{"Stop Typing Bad Chat", `{"event":"stop-typing","data":"abc"}`, "Error sending the typing status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.HandleFrame(context.Background(), c, []byte(tt.raw))
			f := nextFrame(t, c)
			assert.Equal(t, EventError, f.Event)
			var msg string
			require.NoError(t, json.Unmarshal(f.Data, &msg))
			assert.Equal(t, tt.error, msg)
		})
	}
}

func TestHandleFrame_VerifiedSetup(t *testing.T) {
	r := NewRelay(WithVerifiedSetup(true))
	c := newTestClient(1)

	send(t, r, c, EventSetup, map[string]any{"userid": 2})
	assert.Equal(t, EventError, nextFrame(t, c).Event)
	assert.Empty(t, r.Rooms(c), "claiming another user's room is refused")

	send(t, r, c, EventSetup, map[string]any{"userid": 1})
	assert.Equal(t, EventConnected, nextFrame(t, c).Event)
	assert.Equal(t, []string{UserRoom(1)}, r.Rooms(c))
}

func TestHandleFrame_UnverifiedSetupTrustsPayload(t *testing.T) {
	r := NewRelay()
	c := newTestClient(1)
	send(t, r, c, EventSetup, map[string]any{"userid": 2})
	assert.Equal(t, EventConnected, nextFrame(t, c).Event)
	assert.Equal(t, []string{UserRoom(2)}, r.Rooms(c))
}

func TestHandleFrame_TypingAndLeave(t *testing.T) {
	r := NewRelay()
	a, b := newTestClient(1), newTestClient(2)
	send(t, r, a, EventJoinChat, "7")
	send(t, r, b, EventJoinChat, 7)

	send(t, r, a, EventTyping, 7)
	f := nextFrame(t, b)
	assert.Equal(t, EventTyping, f.Event)
	assertNoFrame(t, a)

	send(t, r, b, EventLeaveChat, 7)
	send(t, r, a, EventStopTyping, 7)
	assertNoFrame(t, b)
	assert.Len(t, r.Members(ChatRoom(7)), 1)
}
