package canvas

import "errors"

var (
	ErrNoScenes        = errors.New("room has no scenes")
	ErrSceneOutOfRange = errors.New("scene index out of range")
)
