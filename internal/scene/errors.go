package scene

import "errors"

var (
	ErrUnknownScene = errors.New("scene: unknown scene")
	ErrBadParams    = errors.New("scene: invalid parameters")
)
