package engine

import (
	"github.com/audiolibrelab/loopcanvas/internal/recorder"
)

// Status is an immutable snapshot of the engine, safe to read from any
// goroutine.
type Status struct {
	State     recorder.State
	SessionID string
	Loops     int
	Filter    string
	Pending   int
	Recorded  int
	Frames    uint64
	LastError string
	// Waveforms holds the bytes drawn for each loop in the last frame.
	Waveforms [][]byte
	// Spectra holds each loop's frequency bytes sampled in the same frame.
	Spectra [][]byte
}

// Status builds a snapshot. It must be called on the engine goroutine.
func (e *Engine) Status() Status {
	s := Status{
		State:     e.recorder.State(),
		Loops:     e.registry.Len(),
		Filter:    e.filter.String(),
		Pending:   e.recorder.Pending(),
		Recorded:  e.recorder.Recorded(),
		Frames:    e.frames,
		LastError: e.lastError,
	}
	if info, ok := e.recorder.Session(); ok {
		s.SessionID = info.ID
	}
	for i, t := range e.tracks {
		if i >= s.Loops {
			break
		}
		s.Waveforms = append(s.Waveforms, append([]byte(nil), t.last...))
		s.Spectra = append(s.Spectra, append([]byte(nil), t.spectrum...))
	}
	return s
}

// Snapshot returns the status published after the last command or frame.
// It may be called from any goroutine.
func (e *Engine) Snapshot() Status {
	if s := e.status.Load(); s != nil {
		return *s
	}
	return Status{}
}

func (e *Engine) publish() {
	s := e.Status()
	e.status.Store(&s)
}
