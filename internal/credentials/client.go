// Package credentials talks to the external credential endpoint that issues
// room and media access tokens. Any malformed response is rejected with
// types.ErrInvalidCredentials before a transport is opened.
package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"classsync/pkg/ports"
	"classsync/pkg/types"
)

// Media services commonly reserve UIDs outside this band; responses outside
// it are treated as malformed.
const (
	MinUID = 1000
	MaxUID = 65000
)

var validate = validator.New()

// Client is an HTTP credential service client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the endpoint at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type roomResponse struct {
	AppID     string `json:"appId" validate:"required"`
	RoomID    string `json:"roomId" validate:"required"`
	RoomToken string `json:"roomToken" validate:"required"`
}

type mediaResponse struct {
	// Pointer so a missing uid fails "required" instead of defaulting to 0.
	UID         *int   `json:"uid" validate:"required,gte=1000,lte=65000"`
	ChannelName string `json:"channelName" validate:"required"`
}

// RoomCredentials requests collaboration-room credentials.
func (c *Client) RoomCredentials(ctx context.Context, req ports.CredentialRequest) (types.RoomCredentials, error) {
	var resp roomResponse
	if err := c.post(ctx, "/credentials/room", req, &resp); err != nil {
		return types.RoomCredentials{}, err
	}
	if err := validate.Struct(resp); err != nil {
		return types.RoomCredentials{}, fmt.Errorf("%w: %v", types.ErrInvalidCredentials, err)
	}
	return types.RoomCredentials{
		AppID:     resp.AppID,
		RoomID:    resp.RoomID,
		RoomToken: resp.RoomToken,
	}, nil
}

// MediaCredentials requests media-session credentials. A uid outside
// [MinUID, MaxUID] or with the wrong JSON type is InvalidCredentials.
func (c *Client) MediaCredentials(ctx context.Context, req ports.CredentialRequest) (types.MediaCredentials, error) {
	var resp mediaResponse
	if err := c.post(ctx, "/credentials/media", req, &resp); err != nil {
		return types.MediaCredentials{}, err
	}
	if err := validate.Struct(resp); err != nil {
		return types.MediaCredentials{}, fmt.Errorf("%w: %v", types.ErrInvalidCredentials, err)
	}
	return types.MediaCredentials{
		UID:         *resp.UID,
		ChannelName: resp.ChannelName,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, req ports.CredentialRequest, out interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode credential request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build credential request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("credential endpoint unreachable: %w", err)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("credential endpoint returned status %d", httpResp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read credential response: %w", err)
	}

	// A wrong-typed field (string uid, object token) fails here.
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidCredentials, err)
	}
	return nil
}
