package collabws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"classsync/pkg/ports"
	"classsync/pkg/types"
)

// Dialer opens rooms and side channels against the classroom room service.
// It implements both ports.RoomDialer and ports.ChannelDialer.
type Dialer struct {
	wsBaseURL   string
	httpBaseURL string
	dialTimeout time.Duration
	httpClient  *http.Client
}

// NewDialer creates a dialer. wsBaseURL is the websocket origin
// (ws://host:port), httpBaseURL the HTTP origin used for preview fetches.
func NewDialer(wsBaseURL, httpBaseURL string, dialTimeout time.Duration) *Dialer {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	return &Dialer{
		wsBaseURL:   wsBaseURL,
		httpBaseURL: httpBaseURL,
		dialTimeout: dialTimeout,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Dial opens the room event socket with the issued credentials.
func (d *Dialer) Dial(ctx context.Context, cred types.RoomCredentials) (ports.CollabRoom, error) {
	url := fmt.Sprintf("%s/rooms/%s", d.wsBaseURL, cred.RoomID)
	conn, err := d.dial(ctx, url, cred)
	if err != nil {
		return nil, fmt.Errorf("dial room %s: %w", cred.RoomID, err)
	}
	return newRoom(newWSConn(conn), d.httpClient, d.httpBaseURL, cred.RoomID), nil
}

// DialChannel opens the named side channel for the credentialed room.
func (d *Dialer) DialChannel(ctx context.Context, cred types.RoomCredentials, name string) (ports.DataChannel, error) {
	url := fmt.Sprintf("%s/rooms/%s/channels/%s", d.wsBaseURL, cred.RoomID, name)
	conn, err := d.dial(ctx, url, cred)
	if err != nil {
		return nil, fmt.Errorf("dial channel %s: %w", name, err)
	}
	return newChannel(conn), nil
}

func (d *Dialer) dial(ctx context.Context, url string, cred types.RoomCredentials) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, d.dialTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cred.RoomToken)
	header.Set("X-App-Id", cred.AppID)

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
