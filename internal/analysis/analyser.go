// Package analysis provides the per-loop analysis node: a tap on a beep
// stream that keeps the most recent window of played samples and exposes it
// as time-domain or frequency-domain data without altering the audio.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/maddyblue/go-dsp/fft"
)

// Silence is the byte value of a zero sample in time-domain byte data.
const Silence = 128

// Options configures an Analyser.
type Options struct {
	// Size is the analysis window in samples; a power of two.
	Size      int
	Smoothing float64
	MinDB     float64
	MaxDB     float64
}

func DefaultOptions() Options {
	return Options{Size: 2048, Smoothing: 0.8, MinDB: -100, MaxDB: -30}
}

// Analyser sits between a source and the output. The output goroutine calls
// Stream; readers call the *Data methods from any goroutine.
type Analyser struct {
	src  beep.Streamer
	opts Options

	mu   sync.Mutex
	ring []float64
	pos  int

	// readMu guards the reader scratch buffer and the smoothing state.
	readMu   sync.Mutex
	scratch  []float64
	smoothed []float64
	window   []float64
}

func New(src beep.Streamer, opts Options) (*Analyser, error) {
	if opts.Size < 32 || opts.Size&(opts.Size-1) != 0 {
		return nil, fmt.Errorf("analysis size must be a power of two >= 32, got %d", opts.Size)
	}
	if opts.MinDB >= opts.MaxDB {
		return nil, fmt.Errorf("min dB (%.1f) must be lower than max dB (%.1f)", opts.MinDB, opts.MaxDB)
	}
	return &Analyser{
		src:      src,
		opts:     opts,
		ring:     make([]float64, opts.Size),
		scratch:  make([]float64, opts.Size),
		smoothed: make([]float64, opts.Size/2),
		window:   blackman(opts.Size),
	}, nil
}

// Stream passes audio through unchanged while recording a mono mix.
func (a *Analyser) Stream(samples [][2]float64) (int, bool) {
	n, ok := a.src.Stream(samples)
	if n > 0 {
		a.mu.Lock()
		for i := 0; i < n; i++ {
			a.ring[a.pos] = (samples[i][0] + samples[i][1]) / 2
			a.pos = (a.pos + 1) % len(a.ring)
		}
		a.mu.Unlock()
	}
	return n, ok
}

func (a *Analyser) Err() error {
	return a.src.Err()
}

// Size is the analysis window length in samples.
func (a *Analyser) Size() int {
	return a.opts.Size
}

// BinCount is the number of frequency bins, half the window size.
func (a *Analyser) BinCount() int {
	return a.opts.Size / 2
}

// snapshot copies the window into dst in chronological order.
func (a *Analyser) snapshot(dst []float64) {
	a.mu.Lock()
	n := copy(dst, a.ring[a.pos:])
	copy(dst[n:], a.ring[:a.pos])
	a.mu.Unlock()
}

// ByteTimeDomainData fills dst with the oldest len(dst) samples of the
// current window, quantized to unsigned bytes centred on Silence, and
// returns how many were written.
func (a *Analyser) ByteTimeDomainData(dst []byte) int {
	a.readMu.Lock()
	defer a.readMu.Unlock()

	win := a.scratch
	a.snapshot(win)
	n := min(len(dst), len(win))
	for i := 0; i < n; i++ {
		dst[i] = ToByte(win[i])
	}
	return n
}

// ByteFrequencyData fills dst with the smoothed magnitude spectrum of the
// window, mapped from [MinDB, MaxDB] to [0, 255].
func (a *Analyser) ByteFrequencyData(dst []byte) int {
	a.readMu.Lock()
	defer a.readMu.Unlock()

	win := a.scratch
	a.snapshot(win)
	for i := range win {
		win[i] *= a.window[i]
	}

	spectrum := fft.FFTReal(win)
	n := min(len(dst), len(a.smoothed))
	scale := 255 / (a.opts.MaxDB - a.opts.MinDB)
	for k := 0; k < len(a.smoothed); k++ {
		mag := cmplx.Abs(spectrum[k]) / float64(a.opts.Size)
		a.smoothed[k] = a.opts.Smoothing*a.smoothed[k] + (1-a.opts.Smoothing)*mag
		if k >= n {
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		v := (db - a.opts.MinDB) * scale
		switch {
		case math.IsInf(db, -1) || v < 0:
			dst[k] = 0
		case v > 255:
			dst[k] = 255
		default:
			dst[k] = byte(v)
		}
	}
	return n
}

// ToByte maps a sample in [-1, 1] to an unsigned byte, 128 being silence.
func ToByte(s float64) byte {
	v := math.Floor(Silence * (1 + s))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Amplitude maps a time-domain byte back to [-1, 1).
func Amplitude(b byte) float64 {
	return float64(b)/Silence - 1
}

func blackman(n int) []float64 {
	const a0, a1, a2 = 0.42, 0.5, 0.08
	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}
	return w
}
