package render

import (
	"image"
	"image/color"

	"github.com/audiolibrelab/loopcanvas/internal/analysis"
)

const (
	WaveformWidth  = 2
	BorderWidth    = 2
	SeparatorWidth = 1
)

// LineColor is used for waveforms, the left border and separators.
var LineColor = color.RGBA{R: 0x00, G: 0x0f, B: 0xff, A: 0xff}

// Slice is the horizontal band of the canvas owned by one loop.
type Slice struct {
	X, Width float64
}

// Slices splits width into n equal bands, left to right. The widths always
// add up to width; n < 1 yields one band covering everything.
func Slices(width float64, n int) []Slice {
	if n < 1 {
		n = 1
	}
	w := width / float64(n)
	out := make([]Slice, n)
	for i := range out {
		out[i] = Slice{X: float64(i) * w, Width: w}
	}
	return out
}

// Sampler provides the time-domain bytes of one track.
type Sampler interface {
	Waveform(dst []byte) int
}

// Renderer draws frames. It keeps a scratch buffer between frames and is not
// safe for concurrent use.
type Renderer struct {
	samples []byte
	points  []Point
}

// NewRenderer draws samples points per waveform.
func NewRenderer(samples int) *Renderer {
	return &Renderer{
		samples: make([]byte, samples),
		points:  make([]Point, 0, samples),
	}
}

// Draw renders one frame: clear, the video frame if any, one waveform per
// track, the left border, then separators between slices.
func (r *Renderer) Draw(c Canvas, frame image.Image, tracks []Sampler) {
	width, height := c.Size()
	w, h := float64(width), float64(height)

	c.Clear()
	if frame != nil {
		c.DrawImage(frame)
	}

	slices := Slices(w, len(tracks))
	for i, track := range tracks {
		r.points = r.waveform(r.points[:0], track, slices[i], h)
		c.StrokePolyline(r.points, WaveformWidth, LineColor)
	}

	c.StrokeLine(0, 0, 0, h, BorderWidth, LineColor)

	for i := 0; i < len(tracks)-1; i++ {
		x := slices[i].X + slices[i].Width
		c.StrokeLine(x, 0, x, h, SeparatorWidth, LineColor)
	}
}

// waveform maps sample index to x across the slice and byte value to y, with
// silence on the vertical centre line.
func (r *Renderer) waveform(dst []Point, track Sampler, s Slice, height float64) []Point {
	n := track.Waveform(r.samples)
	if n == 0 {
		return append(dst, Point{s.X, height / 2}, Point{s.X + s.Width, height / 2})
	}
	step := s.Width / float64(len(r.samples))
	for i := 0; i < n; i++ {
		v := float64(r.samples[i]) / analysis.Silence
		dst = append(dst, Point{X: s.X + float64(i)*step, Y: v * height / 2})
	}
	return dst
}
