package collabws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"classsync/pkg/ports"
	"classsync/pkg/types"
)

// Inbound frame types from the room service.
const (
	frameConnected    = "connected"
	frameRoomState    = "room_state"
	frameDisconnected = "disconnected"
	frameKicked       = "kicked"
	framePhase        = "phase"
)

// Outbound command types.
const (
	cmdSetScene   = "set_scene"
	cmdAddScene   = "add_scene"
	cmdSetTool    = "set_tool"
	cmdUndo       = "undo"
	cmdRedo       = "redo"
	cmdClearScene = "clear_scene"
	cmdMute       = "mute_participant"
	cmdRemove     = "remove_participant"
)

// Room implements ports.CollabRoom over one websocket connection. Events
// are delivered on a buffered channel in transport order; the channel is
// closed when the read pump exits.
type Room struct {
	ws         *wsConn
	events     chan ports.RoomEvent
	httpClient *http.Client
	previewURL string
	roomID     string
}

func newRoom(ws *wsConn, httpClient *http.Client, previewURL, roomID string) *Room {
	r := &Room{
		ws:         ws,
		events:     make(chan ports.RoomEvent, 64),
		httpClient: httpClient,
		previewURL: previewURL,
		roomID:     roomID,
	}
	go r.readPump()
	return r
}

// Events returns the remote event stream.
func (r *Room) Events() <-chan ports.RoomEvent {
	return r.events
}

// readPump decodes inbound frames into room events until the connection
// drops. A read failure is surfaced as one final RoomDisconnected event.
func (r *Room) readPump() {
	defer close(r.events)

	for {
		f, err := r.ws.readFrame()
		if err != nil {
			select {
			case <-r.ws.ctx.Done():
				// Local Close, not a remote failure.
			default:
				r.events <- ports.RoomDisconnected{Err: fmt.Errorf("%w: %v", types.ErrRemoteFailure, err)}
			}
			return
		}

		ev, ok := decodeEvent(f)
		if !ok {
			continue
		}
		select {
		case r.events <- ev:
		case <-r.ws.ctx.Done():
			return
		}
	}
}

// decodeEvent maps one frame to its event. Unknown or undecodable frames
// are dropped so a newer server cannot wedge an older client.
func decodeEvent(f frame) (ports.RoomEvent, bool) {
	switch f.Type {
	case frameConnected:
		return ports.RoomConnected{}, true

	case frameRoomState:
		var st types.RoomState
		if err := json.Unmarshal(f.Payload, &st); err != nil {
			log.Printf("collabws: bad room_state payload: %v", err)
			return nil, false
		}
		return ports.RoomStateChanged{State: st}, true

	case frameDisconnected:
		var p struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(f.Payload, &p)
		return ports.RoomDisconnected{Err: fmt.Errorf("%w: %s", types.ErrRemoteFailure, p.Error)}, true

	case frameKicked:
		var p struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(f.Payload, &p)
		return ports.RoomKicked{Reason: p.Reason}, true

	case framePhase:
		var p struct {
			Phase string `json:"phase"`
		}
		_ = json.Unmarshal(f.Payload, &p)
		return ports.PhaseChanged{Phase: p.Phase}, true

	default:
		log.Printf("collabws: dropping unknown frame type %q", f.Type)
		return nil, false
	}
}

func (r *Room) command(ctx context.Context, kind string, payload interface{}) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}
	return r.ws.writeFrame(ctx, frame{Type: kind, Payload: raw})
}

// SetScene requests activating the scene at index.
func (r *Room) SetScene(ctx context.Context, index int) error {
	return r.command(ctx, cmdSetScene, map[string]int{"index": index})
}

// AddScene requests appending a scene and advancing to it.
func (r *Room) AddScene(ctx context.Context, name string) error {
	return r.command(ctx, cmdAddScene, map[string]string{"name": name})
}

// SetTool requests replacing the shared tool state.
func (r *Room) SetTool(ctx context.Context, tool types.ToolState) error {
	return r.command(ctx, cmdSetTool, tool)
}

// Undo requests one undo step against the remote history.
func (r *Room) Undo(ctx context.Context) error {
	return r.command(ctx, cmdUndo, nil)
}

// Redo requests one redo step against the remote history.
func (r *Room) Redo(ctx context.Context) error {
	return r.command(ctx, cmdRedo, nil)
}

// ClearScene requests erasing the scene at index.
func (r *Room) ClearScene(ctx context.Context, index int) error {
	return r.command(ctx, cmdClearScene, map[string]int{"index": index})
}

// MuteParticipant requests muting the participant's audio.
func (r *Room) MuteParticipant(ctx context.Context, participantID string) error {
	return r.command(ctx, cmdMute, map[string]string{"participant_id": participantID})
}

// RemoveParticipant requests removing the participant from the room.
func (r *Room) RemoveParticipant(ctx context.Context, participantID string) error {
	return r.command(ctx, cmdRemove, map[string]string{"participant_id": participantID})
}

// ScenePreview fetches the rendered preview image over the room service's
// HTTP surface; previews are too large for the event socket.
func (r *Room) ScenePreview(ctx context.Context, index int) ([]byte, error) {
	url := fmt.Sprintf("%s/rooms/%s/scenes/%d/preview", r.previewURL, r.roomID, index)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch preview: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: preview status %d", ErrCommandRejected, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Close releases the handle. Idempotent; the read pump closes Events.
func (r *Room) Close() error {
	return r.ws.close()
}
