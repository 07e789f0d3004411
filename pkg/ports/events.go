package ports

import (
	"classsync/pkg/types"
)

// RoomEvent is the tagged union of remote-origin events delivered by a
// collaboration room. Events must be applied in delivery order through a
// single reducer; no buffering or reordering across event kinds.
type RoomEvent interface {
	isRoomEvent()
}

// RoomConnected reports that the room listener observed the connection
// reach the connected state.
type RoomConnected struct{}

// RoomStateChanged carries one consistent wholesale snapshot of the shared
// room state. Consumers replace their mirror from it; they never merge
// individual fields across events.
type RoomStateChanged struct {
	State types.RoomState
}

// RoomDisconnected reports a transport or session level failure. No
// automatic retry follows from this event alone.
type RoomDisconnected struct {
	Err error
}

// RoomKicked reports removal of the local participant by the remote
// authority.
type RoomKicked struct {
	Reason string
}

// PhaseChanged reports a change of the room's lifecycle phase as defined by
// the remote service (for example "preparing", "teaching", "paused").
type PhaseChanged struct {
	Phase string
}

func (RoomConnected) isRoomEvent()    {}
func (RoomStateChanged) isRoomEvent() {}
func (RoomDisconnected) isRoomEvent() {}
func (RoomKicked) isRoomEvent()       {}
func (PhaseChanged) isRoomEvent()     {}
