package capture

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSource       = errors.New("source must be microphone or system")
	ErrRecordingInProgress = errors.New("a recording is already in progress")
	ErrSessionNotFound     = errors.New("recording not found")
	ErrSessionClosed       = errors.New("recording already stopped")
)

// PermissionError means the device could not be acquired.
type PermissionError struct {
	Source Source
	Reason string
	Err    error
}

func (e *PermissionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot access %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("cannot access %s", e.Source)
}

func (e *PermissionError) Unwrap() error { return e.Err }
