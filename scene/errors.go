package scene

import "errors"

var (
	ErrUnknownObject     = errors.New("scene: unknown object")
	ErrNoActiveCamera    = errors.New("scene: no active camera")
	ErrNotACamera        = errors.New("scene: object is not a camera")
	ErrUnsupportedFormat = errors.New("scene: unsupported mesh format")
)
