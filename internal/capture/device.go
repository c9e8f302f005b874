package capture

import (
	"sync"
	"time"
)

// baseDevice holds the state shared by every backend: the reported device
// state and the session currently receiving audio.
type baseDevice struct {
	mu      sync.Mutex
	state   DeviceState
	format  Format
	chunk   time.Duration
	session *streamSession
}

func newBaseDevice(format Format, chunk time.Duration) baseDevice {
	return baseDevice{state: DeviceSuspended, format: format, chunk: chunk}
}

func (d *baseDevice) State() DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *baseDevice) Format() Format {
	return d.format
}

func (d *baseDevice) setState(s DeviceState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func (d *baseDevice) newSession(dispatch Dispatcher) (Session, error) {
	if d.State() == DeviceClosed {
		return nil, ErrDeviceClosed
	}
	return newStreamSession(dispatch, d.format.ChunkBytes(d.chunk), d.attach, d.detach), nil
}

func (d *baseDevice) attach(s *streamSession) {
	d.mu.Lock()
	d.session = s
	d.mu.Unlock()
}

func (d *baseDevice) detach(s *streamSession) {
	d.mu.Lock()
	if d.session == s {
		d.session = nil
	}
	d.mu.Unlock()
}

// deliver routes captured PCM to the attached session, if any.
func (d *baseDevice) deliver(p []byte) {
	d.mu.Lock()
	s := d.session
	running := d.state == DeviceRunning
	d.mu.Unlock()
	if s != nil && running {
		s.write(p)
	}
}
