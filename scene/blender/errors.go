package blender

import (
	"errors"
	"fmt"
)

var (
	ErrHostExited         = errors.New("blender: host exited")
	ErrUnsupportedVersion = errors.New("blender: unsupported version")
	ErrProtocol           = errors.New("blender: protocol error")
)

// ExitError reports the exit status of a blender process that terminated
// unexpectedly or with a non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("blender: host exited with status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return ErrHostExited
}

// CommandError is returned when the host fails to execute a scene command.
type CommandError struct {
	Op  string
	Msg string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("blender: %s failed: %s", e.Op, e.Msg)
}
