// Package bridge sends and receives ordered chat and structured data
// messages over the side channel, retaining a bounded most-recent window.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"classsync/internal/lifecycle"
	"classsync/pkg/ports"
	"classsync/pkg/types"
)

// DefaultRetention is the bounded chat window: older messages are discarded,
// not archived, trading history for bounded memory.
const DefaultRetention = 100

const maxBodyBytes = 64 * 1024

// wireMessage is the UTF-8 JSON frame carried over the data channel.
type wireMessage struct {
	ID        string    `json:"id,omitempty"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind,omitempty"`
}

// Bridge owns the retained message list. Inbound payloads append in delivery
// order; the list never exceeds the retention window.
type Bridge struct {
	guard     *lifecycle.Guard
	retention int
	limiter   *SendLimiter
	localID   string
	onMessage func(types.Message)

	mu       sync.RWMutex
	channel  ports.DataChannel
	messages []types.Message
}

// NewBridge creates a bridge with the given retention window. onMessage may
// be nil; when set it observes every retained message (used for the optional
// transcript archive).
func NewBridge(guard *lifecycle.Guard, retention int, limiter *SendLimiter, onMessage func(types.Message)) *Bridge {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Bridge{
		guard:     guard,
		retention: retention,
		limiter:   limiter,
		onMessage: onMessage,
	}
}

// Attach binds an established data channel and starts consuming its inbound
// stream. Any previously attached channel is released first.
func (b *Bridge) Attach(ch ports.DataChannel, localParticipantID string) {
	b.mu.Lock()
	prev := b.channel
	b.channel = ch
	b.localID = localParticipantID
	b.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	if ch != nil {
		go b.pump(ch)
	}
}

// Detach releases the current channel. Retained messages survive so a
// reconnect does not blank the chat view.
func (b *Bridge) Detach() {
	b.mu.Lock()
	ch := b.channel
	b.channel = nil
	b.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}
}

// Ready reports whether a send would find an established channel.
func (b *Bridge) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.channel != nil && b.channel.Ready()
}

// Send transmits one chat message. It fails with types.ErrChannelNotReady
// before the channel is established; on any failure nothing is appended
// locally, so the caller can restore the unsent body to the composer.
func (b *Bridge) Send(ctx context.Context, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	if len(body) > maxBodyBytes {
		return ErrBodyTooLarge
	}

	b.mu.RLock()
	ch := b.channel
	localID := b.localID
	b.mu.RUnlock()

	if ch == nil || !ch.Ready() {
		return types.ErrChannelNotReady
	}
	if b.limiter != nil && !b.limiter.Allow() {
		return ErrSendRateLimit
	}

	msg := types.Message{
		ID:        synthesizeID(),
		SenderID:  localID,
		Body:      body,
		Timestamp: time.Now(),
		Kind:      types.MessageKindChat,
	}
	payload, err := json.Marshal(wireMessage{
		ID:        msg.ID,
		SenderID:  msg.SenderID,
		Body:      msg.Body,
		Timestamp: msg.Timestamp,
		Kind:      string(msg.Kind),
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if err := ch.Send(ctx, payload); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	// Local echo only after the transport accepted the payload.
	b.append(msg)
	return nil
}

// PushSystem appends a locally synthesized system message (join, leave,
// kick). System entries share the retention window with chat.
func (b *Bridge) PushSystem(body string) {
	b.append(types.Message{
		ID:        synthesizeID(),
		SenderID:  "system",
		Body:      body,
		Timestamp: time.Now(),
		Kind:      types.MessageKindSystem,
	})
}

// Messages returns the retained list, oldest first.
func (b *Bridge) Messages() []types.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]types.Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// pump consumes one channel's inbound stream until it closes or the guard
// tears down.
func (b *Bridge) pump(ch ports.DataChannel) {
	for {
		select {
		case payload, ok := <-ch.Receive():
			if !ok {
				return
			}
			if !b.guard.Active() {
				return
			}
			b.receive(payload)
		case <-b.guard.Done():
			return
		}
	}
}

func (b *Bridge) receive(payload []byte) {
	var wire wireMessage
	if err := json.Unmarshal(payload, &wire); err != nil {
		log.Printf("bridge: dropping undecodable payload: %v", err)
		return
	}

	msg := types.Message{
		ID:        wire.ID,
		SenderID:  wire.SenderID,
		Body:      wire.Body,
		Timestamp: wire.Timestamp,
		Kind:      types.MessageKind(wire.Kind),
	}
	if msg.ID == "" {
		// List-key uniqueness for rendering, not a delivery guarantee.
		msg.ID = synthesizeID()
	}
	if msg.Kind != types.MessageKindSystem {
		msg.Kind = types.MessageKindChat
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	b.append(msg)
}

func (b *Bridge) append(msg types.Message) {
	b.mu.Lock()
	b.messages = append(b.messages, msg)
	if over := len(b.messages) - b.retention; over > 0 {
		b.messages = append([]types.Message(nil), b.messages[over:]...)
	}
	b.mu.Unlock()

	if b.onMessage != nil {
		b.guard.Do(func() {
			b.onMessage(msg)
		})
	}
}

func synthesizeID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}
