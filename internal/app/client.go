// Package app wires the synchronizer components into one client. Component
// initialization follows dependency order: guard and gate first, then the
// state stores, then the connection manager that feeds them.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"classsync/internal/bridge"
	"classsync/internal/canvas"
	"classsync/internal/collabws"
	"classsync/internal/config"
	"classsync/internal/connection"
	"classsync/internal/credentials"
	"classsync/internal/lifecycle"
	"classsync/internal/notify"
	"classsync/internal/quality"
	"classsync/internal/rolegate"
	"classsync/internal/sessiontimer"
	"classsync/internal/transcript"
	"classsync/pkg/ports"
	"classsync/pkg/types"
)

// Option customizes client construction.
type Option func(*options)

type options struct {
	stats       ports.StatsProvider
	credentials ports.CredentialService
	rooms       ports.RoomDialer
	channels    ports.ChannelDialer
}

// WithStatsProvider attaches the media transport statistics accessor; the
// quality sampler only runs when one is present.
func WithStatsProvider(p ports.StatsProvider) Option {
	return func(o *options) { o.stats = p }
}

// WithCredentialService overrides the HTTP credential client.
func WithCredentialService(s ports.CredentialService) Option {
	return func(o *options) { o.credentials = s }
}

// WithRoomDialer overrides the websocket room dialer, for vendor SDK
// adapters.
func WithRoomDialer(d ports.RoomDialer) Option {
	return func(o *options) { o.rooms = d }
}

// WithChannelDialer overrides the websocket channel dialer.
func WithChannelDialer(d ports.ChannelDialer) Option {
	return func(o *options) { o.channels = d }
}

// Client is the assembled session synchronizer for one view. Close tears
// down the lifecycle guard; a closed client is never reused.
type Client struct {
	cfg     *config.Config
	guard   *lifecycle.Guard
	notices *notify.Queue
	bridge  *bridge.Bridge
	canvas  *canvas.Session
	timer   *sessiontimer.Timer
	sampler *quality.Sampler
	manager *connection.Manager
	archive *transcript.Store

	cancel context.CancelFunc
}

// New assembles a client from configuration.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	guard := lifecycle.NewGuard()
	gate := rolegate.New()
	notices := notify.NewQueue(guard, cfg.MaxVisibleNotify, nil)
	canvasSession := canvas.NewSession(gate, func(err error) {
		notices.Push(fmt.Sprintf("Canvas operation failed: %v", err), types.SeverityError, 5*time.Second)
	})
	timer := sessiontimer.NewTimer(guard, nil)

	var archive *transcript.Store
	var onMessage func(types.Message)
	if cfg.TranscriptPath != "" {
		store, err := transcript.Open(cfg.TranscriptPath)
		if err != nil {
			return nil, fmt.Errorf("open transcript: %w", err)
		}
		archive = store
		channel := func() string { return cfg.Channel }
		onMessage = func(msg types.Message) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := store.Record(ctx, channel(), msg); err != nil {
				log.Printf("app: transcript record: %v", err)
			}
		}
	}

	chat := bridge.NewBridge(guard, cfg.ChatRetention, bridge.NewSendLimiter(cfg.SendPerMinute), onMessage)

	creds := o.credentials
	if creds == nil {
		creds = credentials.NewClient(cfg.CredentialURL, cfg.DialTimeout)
	}
	dialer := collabws.NewDialer(cfg.CollabWSURL, cfg.CollabHTTPURL, cfg.DialTimeout)
	rooms := o.rooms
	if rooms == nil {
		rooms = dialer
	}
	channels := o.channels
	if channels == nil {
		channels = dialer
	}

	var sampler *quality.Sampler
	if o.stats != nil {
		sampler = quality.NewSampler(o.stats, guard, quality.DefaultPolicy(), cfg.QualityInterval, nil)
	}

	manager := connection.NewManager(connection.Deps{
		Guard:         guard,
		Gate:          gate,
		Credentials:   creds,
		Rooms:         rooms,
		Channels:      channels,
		Canvas:        canvasSession,
		Bridge:        chat,
		Notifications: notices,
		Timer:         timer,
		Sampler:       sampler,
		Backoff:       cfg.ReconnectBackoff,
	})

	runCtx, cancel := context.WithCancel(context.Background())
	go timer.Run(runCtx)
	if sampler != nil {
		go sampler.Run(runCtx)
	}

	return &Client{
		cfg:     cfg,
		guard:   guard,
		notices: notices,
		bridge:  chat,
		canvas:  canvasSession,
		timer:   timer,
		sampler: sampler,
		manager: manager,
		archive: archive,
		cancel:  cancel,
	}, nil
}

// Join establishes the session.
func (c *Client) Join(ctx context.Context, channel, participantID string, role types.Role) error {
	c.cfg.Channel = channel
	return c.manager.Join(ctx, connection.Params{
		Channel:       channel,
		ParticipantID: participantID,
		Role:          role,
	})
}

// Leave disconnects. Idempotent.
func (c *Client) Leave() {
	c.manager.Leave()
}

// Reconnect retries the last join after the fixed backoff.
func (c *Client) Reconnect(ctx context.Context) {
	c.manager.Reconnect(ctx)
}

// Close tears down the client permanently: the guard flips inactive, every
// pending timer and continuation becomes a no-op, and resources release.
func (c *Client) Close() {
	c.guard.Teardown()
	c.cancel()
	c.manager.Leave()
	if c.archive != nil {
		if err := c.archive.Close(); err != nil {
			log.Printf("app: transcript close: %v", err)
		}
	}
}

// State returns the connection state.
func (c *Client) State() types.ConnectionState {
	return c.manager.State()
}

// Session returns the current session view, or nil outside one.
func (c *Client) Session() *types.Session {
	return c.manager.Session()
}

// Participants returns the current roster.
func (c *Client) Participants() []types.Participant {
	return c.manager.Participants()
}

// Canvas exposes the canvas store.
func (c *Client) Canvas() *canvas.Session {
	return c.canvas
}

// SendChat transmits one chat message over the side channel.
func (c *Client) SendChat(ctx context.Context, body string) error {
	return c.bridge.Send(ctx, body)
}

// Messages returns the retained chat list, oldest first.
func (c *Client) Messages() []types.Message {
	return c.bridge.Messages()
}

// Notifications exposes the notification queue.
func (c *Client) Notifications() *notify.Queue {
	return c.notices
}

// Quality returns the current network classification, or unknown when no
// stats provider was attached.
func (c *Client) Quality() types.QualityLevel {
	if c.sampler == nil {
		return types.QualityUnknown
	}
	return c.sampler.Level()
}

// Elapsed returns whole seconds connected in the current connection.
func (c *Client) Elapsed() int {
	return c.timer.Elapsed()
}

// MuteParticipant and RemoveParticipant forward moderation requests.
func (c *Client) MuteParticipant(ctx context.Context, participantID string) error {
	return c.manager.MuteParticipant(ctx, participantID)
}

func (c *Client) RemoveParticipant(ctx context.Context, participantID string) error {
	return c.manager.RemoveParticipant(ctx, participantID)
}

// Transcript exposes the optional archive, or nil when disabled.
func (c *Client) Transcript() *transcript.Store {
	return c.archive
}
