package loop

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
)

const (
	clickFrequency = 1760
	clickLength    = 25 * time.Millisecond
)

// Click returns a short decaying blip played as button feedback.
func Click(sr beep.SampleRate, volume float64) (beep.Streamer, error) {
	tone, err := generators.SineTone(sr, clickFrequency)
	if err != nil {
		return nil, fmt.Errorf("failed to create click tone: %w", err)
	}
	total := sr.N(clickLength)
	pos := 0
	decay := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := min(len(samples), total-pos)
		tone.Stream(samples[:n])
		for i := 0; i < n; i++ {
			env := math.Exp(-6 * float64(pos+i) / float64(total))
			samples[i][0] *= env
			samples[i][1] *= env
		}
		pos += n
		return n, true
	})
	return &effects.Gain{Streamer: decay, Gain: volume - 1}, nil
}
