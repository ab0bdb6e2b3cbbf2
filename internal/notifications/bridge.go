package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"facegram/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const bridgeChannelPrefix = "relay:room:"

// envelope is the Redis payload carrying one frame between instances.
type envelope struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	Except string          `json:"except,omitempty"`
}

// Bridge relays frames between instances over Redis pub/sub.
type Bridge struct {
	rdb    *redis.Client
	relay  *Relay
	origin string
}

// NewBridge returns a Bridge delivering inbound frames to relay.
func NewBridge(rdb *redis.Client, relay *Relay) *Bridge {
	return &Bridge{rdb: rdb, relay: relay, origin: uuid.NewString()}
}

// Origin identifies this instance in envelopes.
func (b *Bridge) Origin() string {
	return b.origin
}

// Broadcast publishes frame for room on relay:room:<room>.
func (b *Bridge) Broadcast(ctx context.Context, room string, frame []byte, exceptID string) error {
	if b.rdb == nil {
		return nil
	}
	var f Frame
	if err := json.Unmarshal(frame, &f); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	payload, err := json.Marshal(envelope{
		Origin: b.origin,
		Room:   room,
		Event:  f.Event,
		Data:   f.Data,
		Except: exceptID,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return b.rdb.Publish(ctx, bridgeChannelPrefix+room, payload).Err()
}

// Start subscribes to relay:room:* and redelivers frames published by
// other instances until ctx is done. Envelopes from this instance are
// skipped because Emit already delivered them locally.
func (b *Bridge) Start(ctx context.Context) error {
	if b.rdb == nil {
		return nil
	}
	sub := b.rdb.PSubscribe(ctx, bridgeChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe relay bridge: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.handle(msg.Channel, msg.Payload)
			}
		}
	}()
	return nil
}

func (b *Bridge) handle(channel, payload string) {
	defer func() {
		if r := recover(); r != nil {
			observability.GlobalLogger.Error("panic in relay bridge subscriber",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		observability.GlobalLogger.Warn("relay bridge dropped malformed envelope",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if env.Origin == b.origin {
		return
	}
	room := env.Room
	if room == "" {
		room = strings.TrimPrefix(channel, bridgeChannelPrefix)
	}
	frame, err := EncodeFrame(env.Event, env.Data)
	if err != nil {
		return
	}
	b.relay.DeliverFrame(room, frame, env.Except)
}
