// Package loop holds recorded loops, the shared output bus they play into,
// and the ordered registry that defines track order.
package loop

import (
	"fmt"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/analysis"
	"github.com/gopxl/beep/v2"
)

// Loop is one completed recording. Its audio graph is wired exactly once, at
// creation: handle -> analyser -> output. A new Loop is paused.
type Loop struct {
	buffer   *beep.Buffer
	handle   *Handle
	analyser *analysis.Analyser
}

func New(buf *beep.Buffer, out Output, opts analysis.Options) (*Loop, error) {
	handle := NewHandle(buf)
	an, err := analysis.New(handle, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyser: %w", err)
	}
	out.Connect(an)
	return &Loop{buffer: buf, handle: handle, analyser: an}, nil
}

func (l *Loop) Handle() *Handle {
	return l.handle
}

func (l *Loop) Analyser() *analysis.Analyser {
	return l.analyser
}

// Play starts playback from the current position.
func (l *Loop) Play() {
	l.handle.Play()
}

// Stop pauses playback and seeks back to the start.
func (l *Loop) Stop() {
	l.handle.Pause()
	l.handle.Rewind()
}

// Release stops the loop and disconnects it from the output.
func (l *Loop) Release() {
	l.Stop()
	l.handle.Release()
}

func (l *Loop) Frames() int {
	return l.buffer.Len()
}

func (l *Loop) Duration() time.Duration {
	return l.buffer.Format().SampleRate.D(l.buffer.Len())
}

// Waveform fills dst with the current time-domain bytes of the loop.
func (l *Loop) Waveform(dst []byte) int {
	return l.analyser.ByteTimeDomainData(dst)
}

// Spectrum fills dst with the current frequency bytes of the loop.
func (l *Loop) Spectrum(dst []byte) int {
	return l.analyser.ByteFrequencyData(dst)
}
