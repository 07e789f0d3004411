package bridge

import "errors"

var (
	ErrEmptyBody     = errors.New("message body cannot be empty")
	ErrBodyTooLarge  = errors.New("message body exceeds 64KB limit")
	ErrSendRateLimit = errors.New("send rate limit exceeded")
)
