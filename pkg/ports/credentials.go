package ports

import (
	"context"

	"classsync/pkg/types"
)

// CredentialRequest is the payload sent to the external credential endpoint.
type CredentialRequest struct {
	ChannelName   string     `json:"channelName"`
	ParticipantID string     `json:"participantId"`
	Role          types.Role `json:"role"`
}

// CredentialService issues access credentials for the collaboration room and
// the media session. Implementations must reject malformed responses with
// types.ErrInvalidCredentials so the join aborts before any transport opens.
type CredentialService interface {
	RoomCredentials(ctx context.Context, req CredentialRequest) (types.RoomCredentials, error)
	MediaCredentials(ctx context.Context, req CredentialRequest) (types.MediaCredentials, error)
}
