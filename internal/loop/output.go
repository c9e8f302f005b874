package loop

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is the shared destination every loop is connected to. Streams are
// summed at unit gain; a stream that ends is dropped by the bus.
type Output interface {
	Connect(s beep.Streamer)
	Close() error
}

// SpeakerOutput plays the bus on the default audio output device.
type SpeakerOutput struct {
	format beep.Format
}

func NewSpeakerOutput(format beep.Format, buffer time.Duration) (*SpeakerOutput, error) {
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(buffer)); err != nil {
		return nil, fmt.Errorf("failed to initialize audio output: %w", err)
	}
	return &SpeakerOutput{format: format}, nil
}

func (o *SpeakerOutput) Connect(s beep.Streamer) {
	speaker.Play(s)
}

func (o *SpeakerOutput) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}

// MemoryOutput mixes the bus in memory. Nothing is audible; the bus only
// advances when Pull is called, or continuously once Run is started.
type MemoryOutput struct {
	mu    sync.Mutex
	mixer beep.Mixer
	done  chan struct{}
	once  sync.Once
}

func NewMemoryOutput() *MemoryOutput {
	return &MemoryOutput{done: make(chan struct{})}
}

func (o *MemoryOutput) Connect(s beep.Streamer) {
	o.mu.Lock()
	o.mixer.Add(s)
	o.mu.Unlock()
}

// Pull mixes the next n frames of every connected stream.
func (o *MemoryOutput) Pull(n int) [][2]float64 {
	samples := make([][2]float64, n)
	o.mu.Lock()
	o.mixer.Stream(samples)
	o.mu.Unlock()
	return samples
}

// Connected is the number of streams still attached to the bus.
func (o *MemoryOutput) Connected() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mixer.Len()
}

// Run pulls the bus in real time for sr until Close, so that analysers keep
// seeing the loops while no audio device is in use.
func (o *MemoryOutput) Run(sr beep.SampleRate, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	frames := sr.N(period)
	for {
		select {
		case <-o.done:
			return
		case <-ticker.C:
			o.Pull(frames)
		}
	}
}

func (o *MemoryOutput) Close() error {
	o.once.Do(func() { close(o.done) })
	return nil
}
