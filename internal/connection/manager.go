// Package connection owns the join / reconnect / disconnect lifecycle
// against the remote collaboration service and dispatches its event stream
// into the state stores. All remote events funnel through one reducer so
// scene, tool, participant, and undo/redo state are only ever replaced
// wholesale from a single consistent snapshot per event.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"classsync/internal/bridge"
	"classsync/internal/canvas"
	"classsync/internal/lifecycle"
	"classsync/internal/notify"
	"classsync/internal/quality"
	"classsync/internal/rolegate"
	"classsync/internal/sessiontimer"
	"classsync/pkg/ports"
	"classsync/pkg/types"
)

// DefaultBackoff is the single fixed delay before a reconnect re-joins.
// One delay, no exponential growth, and no retry loop: a failed reconnect
// waits for the caller to ask again.
const DefaultBackoff = 1000 * time.Millisecond

const (
	errorNotificationDuration = 5 * time.Second
	infoNotificationDuration  = 3 * time.Second
)

// Params are the join parameters, kept for reconnect.
type Params struct {
	Channel       string
	ParticipantID string
	Role          types.Role
}

// Deps are the collaborators a Manager coordinates.
type Deps struct {
	Guard         *lifecycle.Guard
	Gate          rolegate.Gate
	Credentials   ports.CredentialService
	Rooms         ports.RoomDialer
	Channels      ports.ChannelDialer
	Canvas        *canvas.Session
	Bridge        *bridge.Bridge
	Notifications *notify.Queue
	Timer         *sessiontimer.Timer
	Sampler       *quality.Sampler
	Backoff       time.Duration
}

// Manager is the connection state machine. It is the sole owner of the
// Session entity and of the participant set.
type Manager struct {
	guard    *lifecycle.Guard
	gate     rolegate.Gate
	creds    ports.CredentialService
	rooms    ports.RoomDialer
	channels ports.ChannelDialer
	canvas   *canvas.Session
	bridge   *bridge.Bridge
	notify   *notify.Queue
	timer    *sessiontimer.Timer
	sampler  *quality.Sampler
	backoff  time.Duration

	mu               sync.RWMutex
	state            types.ConnectionState
	session          *types.Session
	params           Params
	hasParams        bool
	room             ports.CollabRoom
	participants     []types.Participant
	reconnectPending bool
	epoch            uint64
}

// NewManager creates a manager in the disconnected state.
func NewManager(d Deps) *Manager {
	backoff := d.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &Manager{
		guard:    d.Guard,
		gate:     d.Gate,
		creds:    d.Credentials,
		rooms:    d.Rooms,
		channels: d.Channels,
		canvas:   d.Canvas,
		bridge:   d.Bridge,
		notify:   d.Notifications,
		timer:    d.Timer,
		sampler:  d.Sampler,
		backoff:  backoff,
		state:    types.StateDisconnected,
	}
}

// State returns the current connection state.
func (m *Manager) State() types.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Session returns a copy of the current session, or nil outside one.
func (m *Manager) Session() *types.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	s.State = m.state
	return &s
}

// Participants returns the current participant set in presence order.
func (m *Manager) Participants() []types.Participant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Participant, len(m.participants))
	copy(out, m.participants)
	return out
}

// Join establishes a session. It fails fast on malformed parameters, then
// requests credentials, opens the room, and registers listeners. The state
// reaches connected only when the room listener reports it.
func (m *Manager) Join(ctx context.Context, p Params) error {
	if err := types.ValidateJoinParams(p.Channel, p.ParticipantID, p.Role); err != nil {
		m.pushError("Could not join: invalid session parameters")
		return err
	}

	m.mu.Lock()
	switch m.state {
	case types.StateDisconnected, types.StateFailed, types.StateReconnecting:
		// proceed
	default:
		m.mu.Unlock()
		return ErrJoinInProgress
	}
	m.state = types.StateConnecting
	m.params = p
	m.hasParams = true
	m.mu.Unlock()

	req := ports.CredentialRequest{
		ChannelName:   p.Channel,
		ParticipantID: p.ParticipantID,
		Role:          p.Role,
	}

	roomCred, err := m.creds.RoomCredentials(ctx, req)
	if err != nil {
		return m.failJoin(err)
	}
	mediaCred, err := m.creds.MediaCredentials(ctx, req)
	if err != nil {
		return m.failJoin(err)
	}

	room, err := m.rooms.Dial(ctx, roomCred)
	if err != nil {
		return m.failJoin(fmt.Errorf("%w: %v", types.ErrRemoteFailure, err))
	}

	// The side channel is best-effort at join time: chat reports
	// ChannelNotReady until it comes up, the session itself still works.
	if m.channels != nil && m.bridge != nil {
		if ch, chErr := m.channels.DialChannel(ctx, roomCred, p.Channel); chErr != nil {
			log.Printf("connection: data channel unavailable: %v", chErr)
			if m.notify != nil {
				m.notify.Push("Chat is unavailable", types.SeverityWarning, infoNotificationDuration)
			}
		} else {
			m.bridge.Attach(ch, p.ParticipantID)
		}
	}

	m.mu.Lock()
	m.room = room
	m.session = &types.Session{
		ID:                 uuid.New().String(),
		ChannelName:        mediaCred.ChannelName,
		LocalParticipantID: p.ParticipantID,
		Role:               p.Role,
		State:              types.StateConnecting,
	}
	m.mu.Unlock()

	go m.dispatch(room)

	log.Printf("connection: joined channel=%s participant=%s role=%s", p.Channel, p.ParticipantID, p.Role)
	return nil
}

// failJoin routes a join failure to its terminal state. Credential
// validation failures abort before any transport opened, so they settle back
// to disconnected; everything else lands in failed.
func (m *Manager) failJoin(err error) error {
	m.mu.Lock()
	if errors.Is(err, types.ErrInvalidCredentials) {
		m.state = types.StateDisconnected
	} else {
		m.state = types.StateFailed
	}
	m.mu.Unlock()

	m.pushError(fmt.Sprintf("Could not join session: %v", err))
	return err
}

// Leave disconnects unconditionally. Valid from any state and idempotent:
// listeners are unregistered, the room handle is released, any pending
// reconnect is invalidated, and the state is disconnected afterwards no
// matter what it was before.
func (m *Manager) Leave() {
	m.release()

	m.mu.Lock()
	m.state = types.StateDisconnected
	m.reconnectPending = false
	m.epoch++
	m.mu.Unlock()
}

// release tears down session resources without touching the state field, so
// reconnect can keep the reconnecting state across its backoff.
func (m *Manager) release() {
	m.mu.Lock()
	room := m.room
	m.room = nil
	m.session = nil
	m.participants = nil
	m.mu.Unlock()

	if m.bridge != nil {
		m.bridge.Detach()
	}
	m.canvas.Unbind()
	m.timer.SetConnected(false)

	if room != nil {
		if err := room.Close(); err != nil {
			log.Printf("connection: room close: %v", err)
		}
	}
}

// Reconnect leaves, waits one fixed backoff, then re-joins with the last
// known parameters. Only valid from failed or disconnected; at most one
// reconnect is in flight and concurrent calls are ignored while it pends.
func (m *Manager) Reconnect(ctx context.Context) {
	m.mu.Lock()
	if m.reconnectPending || !m.hasParams {
		m.mu.Unlock()
		return
	}
	if m.state != types.StateFailed && m.state != types.StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.reconnectPending = true
	m.state = types.StateReconnecting
	p := m.params
	gen := m.epoch
	m.mu.Unlock()

	m.release()

	go func() {
		t := time.NewTimer(m.backoff)
		defer t.Stop()

		select {
		case <-t.C:
		case <-m.guard.Done():
			m.clearReconnect()
			return
		case <-ctx.Done():
			m.clearReconnect()
			return
		}

		if !m.guard.Active() {
			m.clearReconnect()
			return
		}

		// An explicit Leave during the backoff bumps the epoch; the
		// pending re-join is abandoned instead of resurrecting the session.
		m.mu.Lock()
		stale := m.epoch != gen || !m.reconnectPending
		m.mu.Unlock()
		if stale {
			return
		}

		err := m.Join(ctx, p)
		m.clearReconnect()
		if err != nil {
			log.Printf("connection: reconnect failed: %v", err)
		}
	}()
}

func (m *Manager) clearReconnect() {
	m.mu.Lock()
	m.reconnectPending = false
	if m.state == types.StateReconnecting {
		// The re-join never happened; settle where a failed join would.
		m.state = types.StateFailed
	}
	m.mu.Unlock()
}

// MuteParticipant requests muting a participant. Moderation is role-gated:
// denial is a silent no-op.
func (m *Manager) MuteParticipant(ctx context.Context, participantID string) error {
	return m.moderate(ctx, participantID, func(room ports.CollabRoom) error {
		return room.MuteParticipant(ctx, participantID)
	})
}

// RemoveParticipant requests removing a participant from the session.
func (m *Manager) RemoveParticipant(ctx context.Context, participantID string) error {
	return m.moderate(ctx, participantID, func(room ports.CollabRoom) error {
		return room.RemoveParticipant(ctx, participantID)
	})
}

func (m *Manager) moderate(ctx context.Context, targetID string, op func(ports.CollabRoom) error) error {
	m.mu.RLock()
	room := m.room
	state := m.state
	role := m.params.Role
	local := m.params.ParticipantID
	m.mu.RUnlock()

	if !m.gate.CanModerate(role, targetID == local) {
		return nil
	}
	if state != types.StateConnected || room == nil {
		m.pushError("Not connected to a session")
		return types.ErrNotConnected
	}
	if err := op(room); err != nil {
		m.pushError(fmt.Sprintf("Moderation request failed: %v", err))
		return fmt.Errorf("%w: %v", types.ErrRemoteFailure, err)
	}
	return nil
}

// dispatch consumes one room's event stream in delivery order until the
// stream closes or the guard tears down. It is the single authoritative
// state-update path for remote-origin events.
func (m *Manager) dispatch(room ports.CollabRoom) {
	for {
		select {
		case ev, ok := <-room.Events():
			if !ok {
				return
			}
			if !m.guard.Active() {
				return
			}
			m.apply(room, ev)
		case <-m.guard.Done():
			return
		}
	}
}

// apply is the reducer mapping (current state, event) to the next state.
// Events from a superseded room handle are dropped.
func (m *Manager) apply(room ports.CollabRoom, ev ports.RoomEvent) {
	m.mu.Lock()
	if m.room != room {
		m.mu.Unlock()
		return
	}

	switch ev := ev.(type) {
	case ports.RoomConnected:
		m.state = types.StateConnected
		if m.session != nil {
			m.session.State = types.StateConnected
		}
		channel := m.params.Channel
		role := m.params.Role
		m.mu.Unlock()

		// Canvas operations are legal only while connected.
		m.canvas.Bind(room, role)
		m.timer.SetConnected(true)
		m.pushInfo("Connected to "+channel, types.SeveritySuccess)
		if m.bridge != nil {
			m.bridge.PushSystem("Connected to session")
		}
		log.Printf("connection: state=connected channel=%s", channel)

	case ports.RoomStateChanged:
		// Wholesale replacement per snapshot; never field-by-field.
		m.participants = append([]types.Participant(nil), ev.State.Participants...)
		m.mu.Unlock()

		m.canvas.ApplySnapshot(ev.State)

	case ports.RoomDisconnected:
		m.state = types.StateFailed
		if m.session != nil {
			m.session.State = types.StateFailed
		}
		m.mu.Unlock()

		m.canvas.Unbind()
		m.timer.SetConnected(false)
		if m.sampler != nil {
			m.sampler.ForceDegraded()
		}
		m.pushError(fmt.Sprintf("Connection lost: %v", ev.Err))
		if m.bridge != nil {
			m.bridge.PushSystem("Connection lost")
		}
		log.Printf("connection: state=failed err=%v", ev.Err)

	case ports.RoomKicked:
		m.state = types.StateFailed
		if m.session != nil {
			m.session.State = types.StateFailed
		}
		m.mu.Unlock()

		m.canvas.Unbind()
		m.timer.SetConnected(false)
		m.pushError("Removed from session: " + ev.Reason)
		if m.bridge != nil {
			m.bridge.PushSystem("Removed from session")
		}
		log.Printf("connection: kicked reason=%s", ev.Reason)

	case ports.PhaseChanged:
		m.mu.Unlock()
		m.pushInfo("Session phase: "+ev.Phase, types.SeverityInfo)

	default:
		m.mu.Unlock()
		log.Printf("connection: unhandled event %T", ev)
	}
}

func (m *Manager) pushError(message string) {
	if m.notify == nil {
		return
	}
	m.notify.Push(message, types.SeverityError, errorNotificationDuration)
}

func (m *Manager) pushInfo(message string, severity types.Severity) {
	if m.notify == nil {
		return
	}
	m.notify.Push(message, severity, infoNotificationDuration)
}
