package types

import (
	"fmt"
	"regexp"
)

// Compiled once at package initialization; join validation runs on every
// connect and reconnect attempt.
var (
	channelRegex     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	participantRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// IsValidChannelName checks channel name format: 1-64 characters,
// alphanumeric plus underscore and hyphen.
func IsValidChannelName(channel string) bool {
	if len(channel) < 1 || len(channel) > 64 {
		return false
	}
	return channelRegex.MatchString(channel)
}

// IsValidParticipantID checks participant ID format: 1-50 characters,
// alphanumeric plus underscore and hyphen.
func IsValidParticipantID(participantID string) bool {
	if len(participantID) < 1 || len(participantID) > 50 {
		return false
	}
	return participantRegex.MatchString(participantID)
}

// ValidateJoinParams fails fast on malformed join input so no credential
// request or transport open happens for input the remote would reject.
func ValidateJoinParams(channel, participantID string, role Role) error {
	if !IsValidChannelName(channel) {
		return fmt.Errorf("%w: channel name %q", ErrInvalidArgument, channel)
	}
	if !IsValidParticipantID(participantID) {
		return fmt.Errorf("%w: participant ID %q", ErrInvalidArgument, participantID)
	}
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidArgument, role)
	}
	return nil
}
