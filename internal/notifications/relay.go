// Package notifications provides the realtime relay: room membership for
// websocket connections, event handling and cross-instance fan-out.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"facegram/internal/observability"
)

// Frame is the wire shape of every message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame marshals event and data into a wire frame.
func EncodeFrame(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	switch v := data.(type) {
	case nil:
	case json.RawMessage:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		raw = b
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// UserRoom is the private room a connection joins on setup.
func UserRoom(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// ChatRoom is the room for connections viewing a chat.
func ChatRoom(chatID uint) string {
	return fmt.Sprintf("chat:%d", chatID)
}

// Broadcaster forwards an encoded frame for room to other instances.
type Broadcaster interface {
	Broadcast(ctx context.Context, room string, frame []byte, exceptID string) error
}

// Relay maps rooms to the connections joined to them.
type Relay struct {
	mu          sync.RWMutex
	rooms       map[string]map[*Client]struct{}
	clientRooms map[*Client]map[string]struct{}
	clients     map[*Client]struct{}

	bridge      Broadcaster
	verifySetup bool
	log         *observability.WSLogger
}

// RelayOption adjusts a Relay.
type RelayOption func(*Relay)

// WithBridge fans Emit calls out to other instances through b.
func WithBridge(b Broadcaster) RelayOption {
	return func(r *Relay) { r.bridge = b }
}

// WithVerifiedSetup rejects setup frames whose userid differs from the
// session user.
func WithVerifiedSetup(enabled bool) RelayOption {
	return func(r *Relay) { r.verifySetup = enabled }
}

// NewRelay returns an empty Relay.
func NewRelay(opts ...RelayOption) *Relay {
	r := &Relay{
		rooms:       make(map[string]map[*Client]struct{}),
		clientRooms: make(map[*Client]map[string]struct{}),
		clients:     make(map[*Client]struct{}),
		log:         observability.NewWSLogger("relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetBridge attaches b after construction; the bridge needs the relay to
// deliver inbound frames, so the two are wired in two steps.
func (r *Relay) SetBridge(b Broadcaster) {
	r.mu.Lock()
	r.bridge = b
	r.mu.Unlock()
}

// Register tracks c as a live connection.
func (r *Relay) Register(ctx context.Context, c *Client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()
	observability.WebSocketConnections.Inc()
	r.log.LogConnect(ctx, c.UserID, c.ID)
}

// Unregister removes c from every room and closes its send channel.
func (r *Relay) Unregister(ctx context.Context, c *Client, reason string) {
	r.mu.Lock()
	_, known := r.clients[c]
	delete(r.clients, c)
	r.mu.Unlock()

	r.LeaveAll(c)
	c.Close()
	if known {
		observability.WebSocketConnections.Dec()
		r.log.LogDisconnect(ctx, c.UserID, c.ID, reason)
	}
}

// Join adds c to room.
func (r *Relay) Join(c *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[room] = members
	}
	members[c] = struct{}{}

	joined, ok := r.clientRooms[c]
	if !ok {
		joined = make(map[string]struct{})
		r.clientRooms[c] = joined
	}
	joined[room] = struct{}{}
}

// Leave removes c from room. Empty rooms are dropped.
func (r *Relay) Leave(c *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(c, room)
}

// LeaveAll removes c from every room it joined.
func (r *Relay) LeaveAll(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.clientRooms[c] {
		r.leaveLocked(c, room)
	}
	delete(r.clientRooms, c)
}

func (r *Relay) leaveLocked(c *Client, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if joined, ok := r.clientRooms[c]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(r.clientRooms, c)
		}
	}
}

// Members returns the clients currently in room.
func (r *Relay) Members(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.rooms[room]))
	for c := range r.rooms[room] {
		out = append(out, c)
	}
	return out
}

// Rooms returns the rooms c has joined, sorted.
func (r *Relay) Rooms(c *Client) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.clientRooms[c]))
	for room := range r.clientRooms[c] {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// Publish delivers event to every local member of room except the given
// client and returns how many connections accepted the frame. Delivery is
// non-blocking; a full buffer drops the frame for that connection.
func (r *Relay) Publish(room, event string, payload any, except *Client) int {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		observability.GlobalLogger.Error("relay encode failed", slog.String("event", event), slog.String("error", err.Error()))
		return 0
	}
	return r.deliver(room, event, frame, skipClient(except))
}

// Emit publishes locally and, when a bridge is attached, to other
// instances. Bridge failures are logged and never returned.
func (r *Relay) Emit(ctx context.Context, room, event string, payload any, except *Client) int {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "relay encode failed", slog.String("event", event), slog.String("error", err.Error()))
		return 0
	}
	delivered := r.deliver(room, event, frame, skipClient(except))

	r.mu.RLock()
	bridge := r.bridge
	r.mu.RUnlock()
	if bridge != nil {
		exceptID := ""
		if except != nil {
			exceptID = except.ID
		}
		if err := bridge.Broadcast(ctx, room, frame, exceptID); err != nil {
			observability.GlobalLogger.WarnContext(ctx, "relay bridge publish failed",
				slog.String("room", room),
				slog.String("error", err.Error()),
			)
		}
	}
	return delivered
}

// DeliverFrame hands an already encoded frame to local members of room.
// The bridge subscriber uses it for frames from other instances.
func (r *Relay) DeliverFrame(room string, frame []byte, exceptID string) int {
	var f Frame
	event := "unknown"
	if err := json.Unmarshal(frame, &f); err == nil && f.Event != "" {
		event = f.Event
	}
	return r.deliver(room, event, frame, func(c *Client) bool {
		return exceptID != "" && c.ID == exceptID
	})
}

func skipClient(except *Client) func(*Client) bool {
	return func(c *Client) bool { return except != nil && c == except }
}

func (r *Relay) deliver(room, event string, frame []byte, skip func(*Client) bool) int {
	members := r.Members(room)
	if len(members) == 0 {
		observability.RelayDrops.WithLabelValues("no_recipient").Inc()
		return 0
	}
	delivered := 0
	for _, c := range members {
		if skip(c) {
			continue
		}
		if c.TrySend(frame) {
			delivered++
		}
	}
	observability.RelayDeliveries.WithLabelValues(event).Add(float64(delivered))
	return delivered
}

// Shutdown closes every connection's send channel.
func (r *Relay) Shutdown() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()
	for _, c := range clients {
		r.Unregister(context.Background(), c, "shutdown")
	}
}

// ClientCount is the number of registered connections.
func (r *Relay) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
