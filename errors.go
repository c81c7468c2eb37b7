package ggvideo

import (
	"errors"
	"fmt"
)

// ErrStopTimeout is returned (wrapped in a FinalizeError) when the pump does
// not exit within the stop timeout.
var ErrStopTimeout = errors.New("ggvideo: timed out waiting for frame pump")

// SetupError is returned by Start when the encoder cannot be opened.
type SetupError struct {
	Destination string
	Err         error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("ggvideo: start %s: %v", e.Destination, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// DrawError describes a failed pump tick. It is logged and counted, never
// returned.
type DrawError struct {
	// Frame is the index of the tick that failed.
	Frame int64
	Err   error
}

func (e *DrawError) Error() string {
	return fmt.Sprintf("ggvideo: draw frame %d: %v", e.Frame, e.Err)
}

func (e *DrawError) Unwrap() error { return e.Err }

// FinalizeError is returned by Stop when the output could not be completed.
// The encoder's resources are released regardless.
type FinalizeError struct {
	Destination string
	Err         error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("ggvideo: finalize %s: %v", e.Destination, e.Err)
}

func (e *FinalizeError) Unwrap() error { return e.Err }
