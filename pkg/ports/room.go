package ports

import (
	"context"

	"classsync/pkg/types"
)

// CollabRoom is the handle to the remote collaboration session. The remote
// service maintains the canonical scene, tool, and undo/redo state; every
// mutating call here is a request, confirmed back through a RoomStateChanged
// event. Implementations must deliver events in transport order.
type CollabRoom interface {
	// Events returns the stream of remote-origin events. The channel is
	// closed when the room handle is released.
	Events() <-chan RoomEvent

	// SetScene requests activating the scene at index.
	SetScene(ctx context.Context, index int) error

	// AddScene requests appending a scene and advancing the active index
	// to it.
	AddScene(ctx context.Context, name string) error

	// SetTool requests replacing the shared tool state (last writer wins,
	// arbitrated remotely).
	SetTool(ctx context.Context, tool types.ToolState) error

	// Undo and Redo operate on the history kept by the remote engine.
	Undo(ctx context.Context) error
	Redo(ctx context.Context) error

	// ClearScene requests erasing all content of the scene at index.
	ClearScene(ctx context.Context, index int) error

	// ScenePreview fetches a rendered preview image of the scene at index.
	ScenePreview(ctx context.Context, index int) ([]byte, error)

	// MuteParticipant and RemoveParticipant are moderation requests.
	MuteParticipant(ctx context.Context, participantID string) error
	RemoveParticipant(ctx context.Context, participantID string) error

	// Close releases the handle and unregisters all listeners. Idempotent.
	Close() error
}

// RoomDialer opens a collaboration room from validated credentials.
type RoomDialer interface {
	Dial(ctx context.Context, cred types.RoomCredentials) (CollabRoom, error)
}
