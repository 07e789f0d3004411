package ports

import (
	"context"

	"classsync/pkg/types"
)

// DataChannel is the ordered, reliable side channel used for chat and
// structured data payloads, distinct from audio/video media. Payloads are
// opaque byte buffers; this module encodes them as UTF-8 JSON.
type DataChannel interface {
	// Send transmits one payload. Implementations must preserve send order.
	Send(ctx context.Context, payload []byte) error

	// Receive returns the stream of inbound payloads in delivery order.
	// The channel is closed when the data channel is released.
	Receive() <-chan []byte

	// Ready reports whether the channel is established and usable.
	Ready() bool

	// Close releases the channel. Idempotent.
	Close() error
}

// ChannelDialer opens the named side channel for a credentialed room.
type ChannelDialer interface {
	DialChannel(ctx context.Context, cred types.RoomCredentials, name string) (DataChannel, error)
}
