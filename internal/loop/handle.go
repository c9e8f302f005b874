package loop

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// Handle is the playback handle of one loop. It repeats its buffer forever
// while playing and emits silence while paused, so the output bus never
// drops it until it is released.
type Handle struct {
	mu       sync.Mutex
	src      beep.StreamSeeker
	playing  bool
	released bool
}

func NewHandle(buf *beep.Buffer) *Handle {
	return &Handle{src: buf.Streamer(0, buf.Len())}
}

func (h *Handle) Stream(samples [][2]float64) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return 0, false
	}
	if !h.playing || h.src.Len() == 0 {
		silence(samples)
		return len(samples), true
	}

	filled := 0
	for filled < len(samples) {
		n, _ := h.src.Stream(samples[filled:])
		filled += n
		if filled < len(samples) {
			if err := h.src.Seek(0); err != nil {
				silence(samples[filled:])
				break
			}
		}
	}
	return len(samples), true
}

func (h *Handle) Err() error {
	return h.src.Err()
}

func (h *Handle) Play() {
	h.mu.Lock()
	if !h.released {
		h.playing = true
	}
	h.mu.Unlock()
}

func (h *Handle) Pause() {
	h.mu.Lock()
	h.playing = false
	h.mu.Unlock()
}

// Rewind seeks back to the first sample.
func (h *Handle) Rewind() {
	h.mu.Lock()
	_ = h.src.Seek(0)
	h.mu.Unlock()
}

// Release detaches the handle from the output. A released handle never
// plays again.
func (h *Handle) Release() {
	h.mu.Lock()
	h.playing = false
	h.released = true
	h.mu.Unlock()
}

func (h *Handle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Position is the current playback position in frames.
func (h *Handle) Position() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.src.Position()
}

// Len is the loop length in frames.
func (h *Handle) Len() int {
	return h.src.Len()
}

func silence(samples [][2]float64) {
	for i := range samples {
		samples[i] = [2]float64{}
	}
}
