package types

import "errors"

// Error taxonomy shared by every component. Each operation boundary wraps
// one of these sentinels so callers can branch with errors.Is.
var (
	// ErrInvalidArgument covers malformed join parameters (empty channel,
	// empty participant ID, unknown role).
	ErrInvalidArgument = errors.New("invalid join parameters")

	// ErrInvalidCredentials covers a malformed or out-of-range credential
	// endpoint response. The join aborts before any transport is opened.
	ErrInvalidCredentials = errors.New("invalid credential response")

	// ErrNotConnected covers operations attempted outside the connected state.
	ErrNotConnected = errors.New("session not connected")

	// ErrChannelNotReady covers sends before the data channel is established.
	ErrChannelNotReady = errors.New("data channel not ready")

	// ErrRemoteFailure covers transport or session level disconnects and kicks.
	ErrRemoteFailure = errors.New("remote session failure")
)
