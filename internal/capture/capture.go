// Package capture provides the live audio side of the combined media stream:
// a capture device that can be suspended and resumed, and recording sessions
// bound to it that emit raw PCM chunks while they are recording.
package capture

import (
	"errors"
)

// DeviceState is the state reported by a capture device.
type DeviceState string

const (
	DeviceSuspended DeviceState = "suspended"
	DeviceRunning   DeviceState = "running"
	DeviceClosed    DeviceState = "closed"
)

// SessionState is the state reported by a recording session.
type SessionState string

const (
	SessionInactive  SessionState = "inactive"
	SessionRecording SessionState = "recording"
)

var (
	ErrDeviceClosed     = errors.New("capture device is closed")
	ErrAlreadyRecording = errors.New("session is already recording")
	ErrSessionFinished  = errors.New("session has already finished")
)

// Dispatcher hands a callback to the goroutine that owns the recorder state.
// Sessions never invoke handlers directly from the audio thread.
type Dispatcher func(func())

// Handlers are the callbacks a session invokes through its Dispatcher.
// OnData receives chunks in capture order; OnStop is invoked exactly once,
// after the last OnData, when the session finalizes.
type Handlers struct {
	OnData func(Chunk)
	OnStop func()
}

// Session is one recording bound to a device. A session records at most
// once: after Stop it stays inactive.
type Session interface {
	State() SessionState
	Start(h Handlers) error
	Stop() error
}

// Device is the audio track of the capture stream.
type Device interface {
	State() DeviceState
	Resume() error
	NewSession(dispatch Dispatcher) (Session, error)
	Format() Format
	Close() error
}
