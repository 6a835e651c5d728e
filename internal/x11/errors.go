package x11

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error types
var (
	ErrClosed         = errors.New("session used after close")
	ErrConnectionDied = errors.New("connection with X server closed")
	ErrContextExists  = errors.New("an interception context is already live")
	ErrNoContext      = errors.New("no live interception context")
	ErrNoDisplay      = errors.New("no display given and $DISPLAY is not set")
)

// ConnectionError is returned when the X server cannot be reached or stops
// responding.
type ConnectionError struct {
	Display string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to display %q: %s", e.Display, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// CapabilityError is returned when the X server lacks an extension required
// for the requested operation.
type CapabilityError struct {
	Extension string
	Err       error
}

func (e *CapabilityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s extension unavailable: %s", e.Extension, e.Err)
	}
	return fmt.Sprintf("%s extension unavailable", e.Extension)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// GrabError is returned when the keyboard could not be grabbed.
type GrabError struct {
	Status byte
}

func (e *GrabError) Error() string {
	name := "Unknown"
	if int(e.Status) < len(keyboardGrabErrors) {
		name = keyboardGrabErrors[e.Status]
	}
	return fmt.Sprintf("grab keyboard: %s", name)
}
