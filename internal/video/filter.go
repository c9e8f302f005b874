// Package video supplies the optional background frame of the canvas and the
// filters it can be shown through.
package video

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// FilterState selects how the video frame is shown. Exactly one state is
// active at a time; Off hides the frame.
type FilterState int

const (
	Off FilterState = iota
	Original
	Grayscale
	Negative
)

var filterNames = map[FilterState]string{
	Off:       "off",
	Original:  "original",
	Grayscale: "grayscale",
	Negative:  "negative",
}

func (f FilterState) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FilterState(%d)", int(f))
}

func ParseFilter(s string) (FilterState, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "origin" {
		return Original, nil
	}
	for f, n := range filterNames {
		if n == name {
			return f, nil
		}
	}
	return Off, fmt.Errorf("unknown filter %q (want off, original, grayscale or negative)", s)
}

// Apply returns frame passed through f as a new RGBA image. It returns nil
// when f is Off or there is no frame.
func Apply(frame image.Image, f FilterState) *image.RGBA {
	if frame == nil || f == Off {
		return nil
	}
	b := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), frame, b.Min, xdraw.Src)

	switch f {
	case Grayscale:
		forEachPixel(out, func(c color.RGBA) color.RGBA {
			y := luminance(c)
			return color.RGBA{R: y, G: y, B: y, A: c.A}
		})
	case Negative:
		// Channels are alpha-premultiplied, so invert against A.
		forEachPixel(out, func(c color.RGBA) color.RGBA {
			return color.RGBA{R: c.A - c.R, G: c.A - c.G, B: c.A - c.B, A: c.A}
		})
	}
	return out
}

// luminance uses Rec. 709 weights, matching a 100% CSS grayscale filter.
func luminance(c color.RGBA) uint8 {
	y := 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
	if y > 255 {
		y = 255
	}
	return uint8(y + 0.5)
}

func forEachPixel(img *image.RGBA, fn func(color.RGBA) color.RGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		c := fn(color.RGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]})
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}
