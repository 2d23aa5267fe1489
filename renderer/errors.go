package renderer

import "errors"

var (
	ErrNothingImported = errors.New("renderer: mesh import produced no objects")
	ErrMultipleObjects = errors.New("renderer: mesh import produced more than one object")
	ErrInvalidOutput   = errors.New("renderer: rendered file is not a png image")
)
