package capture

import (
	"math"
	"sync"
	"time"
)

// ToneDevice synthesizes a slowly warbling sine instead of reading a
// microphone. It paces itself in real time, one chunk per tick.
type ToneDevice struct {
	baseDevice

	frequency float64
	phase     float64
	elapsed   float64

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewToneDevice(format Format, chunk time.Duration, frequency float64) *ToneDevice {
	if frequency <= 0 {
		frequency = 220
	}
	return &ToneDevice{
		baseDevice: newBaseDevice(format, chunk),
		frequency:  frequency,
	}
}

func (d *ToneDevice) Resume() error {
	switch d.State() {
	case DeviceRunning:
		return nil
	case DeviceClosed:
		return ErrDeviceClosed
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.setState(DeviceRunning)
	go d.generate()
	return nil
}

func (d *ToneDevice) NewSession(dispatch Dispatcher) (Session, error) {
	return d.newSession(dispatch)
}

func (d *ToneDevice) Close() error {
	d.once.Do(func() {
		running := d.State() == DeviceRunning
		d.setState(DeviceClosed)
		if running {
			close(d.stop)
			<-d.done
		}
	})
	return nil
}

func (d *ToneDevice) generate() {
	defer close(d.done)

	ticker := time.NewTicker(d.chunk)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.deliver(d.Synthesize(d.format.ChunkBytes(d.chunk) / d.format.BytesPerFrame()))
		}
	}
}

// Synthesize renders the next frames of the tone as S16LE PCM.
func (d *ToneDevice) Synthesize(frames int) []byte {
	bpf := d.format.BytesPerFrame()
	out := make([]byte, frames*bpf)
	rate := float64(d.format.SampleRate)
	for i := 0; i < frames; i++ {
		// One octave of vibrato every four seconds keeps successive loops
		// visually distinct.
		f := d.frequency * math.Pow(2, 0.5+0.5*math.Sin(2*math.Pi*d.elapsed/4))
		d.phase += 2 * math.Pi * f / rate
		if d.phase > 2*math.Pi {
			d.phase -= 2 * math.Pi
		}
		d.elapsed += 1 / rate
		v := 0.5 * math.Sin(d.phase)
		for ch := 0; ch < d.format.Channels; ch++ {
			encodeSample(out[i*bpf+2*ch:], v)
		}
	}
	return out
}
