package connection

import "errors"

var (
	ErrJoinInProgress = errors.New("join already in progress")
)
