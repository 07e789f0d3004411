package collabws

import "errors"

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrWriteTimeout     = errors.New("write timeout")
	ErrCommandRejected  = errors.New("command rejected by room")
)
