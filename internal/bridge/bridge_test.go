package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"classsync/internal/lifecycle"
	"classsync/pkg/types"
)

type fakeChannel struct {
	mu      sync.Mutex
	sent    [][]byte
	sendErr error
	ready   bool
	inbound chan []byte
	closed  bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{ready: true, inbound: make(chan []byte, 16)}
}

func (f *fakeChannel) Send(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeChannel) Receive() <-chan []byte { return f.inbound }

func (f *fakeChannel) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbound)
	}
	return nil
}

func (f *fakeChannel) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func deliver(ch *fakeChannel, id, sender, body string) {
	payload, _ := json.Marshal(wireMessage{
		ID:        id,
		SenderID:  sender,
		Body:      body,
		Timestamp: time.Now(),
		Kind:      "chat",
	})
	ch.inbound <- payload
}

func TestBridge_SendBeforeAttach(t *testing.T) {
	b := NewBridge(lifecycle.NewGuard(), 100, nil, nil)

	err := b.Send(context.Background(), "hello")
	require.ErrorIs(t, err, types.ErrChannelNotReady)
	require.Empty(t, b.Messages())
}

func TestBridge_SendEchoesAfterTransportAccepts(t *testing.T) {
	b := NewBridge(lifecycle.NewGuard(), 100, nil, nil)
	ch := newFakeChannel()
	b.Attach(ch, "p1")

	require.NoError(t, b.Send(context.Background(), "hello"))
	require.Equal(t, 1, ch.sentCount())

	msgs := b.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "p1", msgs[0].SenderID)
	require.Equal(t, "hello", msgs[0].Body)
	require.Equal(t, types.MessageKindChat, msgs[0].Kind)
	require.NotEmpty(t, msgs[0].ID)
}

func TestBridge_FailedSendLeavesNoLocalEcho(t *testing.T) {
	b := NewBridge(lifecycle.NewGuard(), 100, nil, nil)
	ch := newFakeChannel()
	ch.sendErr = errors.New("transport refused")
	b.Attach(ch, "p1")

	err := b.Send(context.Background(), "hello")
	require.Error(t, err)
	require.Empty(t, b.Messages(), "a failed send must not appear in the list")
}

func TestBridge_SendValidation(t *testing.T) {
	b := NewBridge(lifecycle.NewGuard(), 100, nil, nil)
	b.Attach(newFakeChannel(), "p1")

	require.ErrorIs(t, b.Send(context.Background(), "   "), ErrEmptyBody)
	require.ErrorIs(t, b.Send(context.Background(), strings.Repeat("x", maxBodyBytes+1)), ErrBodyTooLarge)
}

func TestBridge_RateLimit(t *testing.T) {
	b := NewBridge(lifecycle.NewGuard(), 100, NewSendLimiter(2), nil)
	b.Attach(newFakeChannel(), "p1")

	require.NoError(t, b.Send(context.Background(), "one"))
	require.NoError(t, b.Send(context.Background(), "two"))
	require.ErrorIs(t, b.Send(context.Background(), "three"), ErrSendRateLimit)
	require.Len(t, b.Messages(), 2)
}

func TestBridge_RetentionKeepsMostRecent(t *testing.T) {
	b := NewBridge(lifecycle.NewGuard(), 100, nil, nil)
	ch := newFakeChannel()
	b.Attach(ch, "p1")

	for i := 1; i <= 120; i++ {
		deliver(ch, fmt.Sprintf("m%d", i), "p2", fmt.Sprintf("msg %d", i))
	}

	require.Eventually(t, func() bool {
		msgs := b.Messages()
		return len(msgs) == 100 && msgs[99].ID == "m120"
	}, time.Second, 5*time.Millisecond)

	msgs := b.Messages()
	require.Equal(t, "m21", msgs[0].ID, "first retained must be the 21st delivered")
	for i, m := range msgs {
		require.Equal(t, fmt.Sprintf("m%d", i+21), m.ID, "delivery order must be preserved")
	}
}

func TestBridge_ReceiveSynthesizesMissingID(t *testing.T) {
	b := NewBridge(lifecycle.NewGuard(), 100, nil, nil)
	ch := newFakeChannel()
	b.Attach(ch, "p1")

	deliver(ch, "", "p2", "anonymous frame")
	deliver(ch, "", "p2", "another")

	require.Eventually(t, func() bool {
		return len(b.Messages()) == 2
	}, time.Second, 5*time.Millisecond)

	msgs := b.Messages()
	require.NotEmpty(t, msgs[0].ID)
	require.NotEmpty(t, msgs[1].ID)
	require.NotEqual(t, msgs[0].ID, msgs[1].ID)
}

func TestBridge_UndecodablePayloadDropped(t *testing.T) {
	b := NewBridge(lifecycle.NewGuard(), 100, nil, nil)
	ch := newFakeChannel()
	b.Attach(ch, "p1")

	ch.inbound <- []byte("{not json")
	deliver(ch, "m1", "p2", "after garbage")

	require.Eventually(t, func() bool {
		return len(b.Messages()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "m1", b.Messages()[0].ID)
}

func TestBridge_DetachKeepsMessages(t *testing.T) {
	b := NewBridge(lifecycle.NewGuard(), 100, nil, nil)
	ch := newFakeChannel()
	b.Attach(ch, "p1")

	require.NoError(t, b.Send(context.Background(), "survivor"))
	b.Detach()

	require.False(t, b.Ready())
	require.Len(t, b.Messages(), 1)
	require.ErrorIs(t, b.Send(context.Background(), "again"), types.ErrChannelNotReady)
}

func TestBridge_PushSystemSharesWindow(t *testing.T) {
	b := NewBridge(lifecycle.NewGuard(), 100, nil, nil)

	b.PushSystem("teacher joined")
	msgs := b.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, types.MessageKindSystem, msgs[0].Kind)
	require.Equal(t, "system", msgs[0].SenderID)
}

func TestBridge_ObserverSeesRetainedMessages(t *testing.T) {
	var mu sync.Mutex
	var seen []types.Message
	b := NewBridge(lifecycle.NewGuard(), 100, nil, func(m types.Message) {
		mu.Lock()
		seen = append(seen, m)
		mu.Unlock()
	})
	b.Attach(newFakeChannel(), "p1")

	require.NoError(t, b.Send(context.Background(), "observed"))
	b.PushSystem("note")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	require.Equal(t, "observed", seen[0].Body)
}

func TestSendLimiter_DisabledWhenNonPositive(t *testing.T) {
	l := NewSendLimiter(0)
	for i := 0; i < 1000; i++ {
		require.True(t, l.Allow())
	}
}

func TestSendLimiter_EnforcesBudget(t *testing.T) {
	l := NewSendLimiter(3)
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.False(t, l.Allow())
}
