// Package recorder turns recording sessions on the capture device into loops.
package recorder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/analysis"
	"github.com/audiolibrelab/loopcanvas/internal/capture"
	"github.com/audiolibrelab/loopcanvas/internal/loop"
	"github.com/google/uuid"
)

// State is derived from the active capture session, never stored separately.
type State string

const (
	StateIdle      State = "IDLE"
	StateRecording State = "RECORDING"
)

// SessionInfo describes one recording for status surfaces and logs.
type SessionInfo struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
}

// session is one recording and the chunks it has produced so far.
type session struct {
	info    SessionInfo
	capture capture.Session
	chunks  []capture.Chunk
}

// Controller is the recorder state machine. All methods, and every handler
// it registers, must run on the engine goroutine; dispatch is how capture
// callbacks get there.
type Controller struct {
	device   capture.Device
	registry *loop.Registry
	output   loop.Output
	analysis analysis.Options
	dispatch capture.Dispatcher

	active   *session
	recorded int

	// OnError receives failures that are logged but not returned, such as
	// a device that refuses to resume.
	OnError func(error)
	// OnLoop is called after a completed loop has been appended.
	OnLoop func(*loop.Loop)
}

func New(device capture.Device, registry *loop.Registry, output loop.Output, opts analysis.Options, dispatch capture.Dispatcher) *Controller {
	return &Controller{
		device:   device,
		registry: registry,
		output:   output,
		analysis: opts,
		dispatch: dispatch,
	}
}

func (c *Controller) State() State {
	if c.active != nil && c.active.capture.State() == capture.SessionRecording {
		return StateRecording
	}
	return StateIdle
}

// Session returns the recording in progress, if any.
func (c *Controller) Session() (SessionInfo, bool) {
	if c.State() != StateRecording {
		return SessionInfo{}, false
	}
	return c.active.info, true
}

// Pending is the number of chunks captured by the current recording.
func (c *Controller) Pending() int {
	if c.active == nil {
		return 0
	}
	return len(c.active.chunks)
}

// Recorded is the number of loops produced since start.
func (c *Controller) Recorded() int {
	return c.recorded
}

// Record starts a new recording. It resumes a suspended device first and is
// a no-op while a recording is in progress.
func (c *Controller) Record() error {
	if c.device.State() == capture.DeviceSuspended {
		if err := c.device.Resume(); err != nil {
			c.reportError(fmt.Errorf("failed to resume capture device: %w", err))
		}
	}

	if c.State() == StateRecording {
		slog.Debug("Record ignored, already recording", "session", c.active.info.ID)
		return nil
	}

	cs, err := c.device.NewSession(c.dispatch)
	if err != nil {
		return fmt.Errorf("failed to create recording session: %w", err)
	}
	s := &session{
		info:    SessionInfo{ID: uuid.NewString(), StartTime: time.Now()},
		capture: cs,
	}
	err = cs.Start(capture.Handlers{
		OnData: func(chunk capture.Chunk) {
			s.chunks = append(s.chunks, chunk)
		},
		OnStop: func() {
			c.finalize(s)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start recording session: %w", err)
	}

	c.active = s
	slog.Info("Recording started", "session", s.info.ID)
	return nil
}

// Stop finalizes the current recording. The loop is appended when the
// session delivers its completion callback. Stop is a no-op when idle.
func (c *Controller) Stop() error {
	if c.State() != StateRecording {
		slog.Debug("Stop ignored, not recording")
		return nil
	}
	if err := c.active.capture.Stop(); err != nil {
		return fmt.Errorf("failed to stop recording session: %w", err)
	}
	return nil
}

// finalize builds a loop from everything s captured and appends it. It runs
// exactly once per session, even if a newer session has started since.
func (c *Controller) finalize(s *session) {
	blob := capture.Concat(s.chunks, c.device.Format())
	chunks := len(s.chunks)
	s.chunks = nil
	if c.active == s {
		c.active = nil
	}

	l, err := loop.New(blob.Buffer(), c.output, c.analysis)
	if err != nil {
		c.reportError(fmt.Errorf("failed to build loop: %w", err))
		return
	}
	c.registry.Append(l)
	c.recorded++

	slog.Info("Loop recorded",
		"session", s.info.ID,
		"chunks", chunks,
		"duration", blob.Duration(),
		"track", c.registry.Len())
	if blob.Frames() == 0 {
		slog.Warn("Recording captured no audio, loop is silent", "session", s.info.ID)
	}
	if c.OnLoop != nil {
		c.OnLoop(l)
	}
}

func (c *Controller) reportError(err error) {
	slog.Error("Recorder error", "error", err)
	if c.OnError != nil {
		c.OnError(err)
	}
}
