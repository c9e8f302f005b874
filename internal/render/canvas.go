// Package render draws the shared canvas: the filtered video frame, one
// waveform per loop in its own slice, and the slice separators.
package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

type Point struct {
	X, Y float64
}

// Canvas is the 2D surface a frame is drawn on.
type Canvas interface {
	Size() (width, height int)
	Clear()
	// DrawImage scales img to cover the whole canvas.
	DrawImage(img image.Image)
	StrokeLine(x0, y0, x1, y1, width float64, c color.Color)
	StrokePolyline(points []Point, width float64, c color.Color)
	Image() image.Image
}

// RasterCanvas is an in-memory Canvas backed by a gg context.
type RasterCanvas struct {
	dc     *gg.Context
	scaled *image.RGBA
}

func NewRasterCanvas(width, height int) *RasterCanvas {
	return &RasterCanvas{
		dc:     gg.NewContext(width, height),
		scaled: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (c *RasterCanvas) Size() (int, int) {
	return c.dc.Width(), c.dc.Height()
}

// Clear makes every pixel transparent.
func (c *RasterCanvas) Clear() {
	c.dc.SetColor(color.Transparent)
	c.dc.Clear()
}

func (c *RasterCanvas) DrawImage(img image.Image) {
	if img == nil {
		return
	}
	b := c.scaled.Bounds()
	if img.Bounds().Size() == b.Size() {
		xdraw.Draw(c.scaled, b, img, img.Bounds().Min, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(c.scaled, b, img, img.Bounds(), xdraw.Src, nil)
	}
	c.dc.DrawImage(c.scaled, 0, 0)
}

func (c *RasterCanvas) StrokeLine(x0, y0, x1, y1, width float64, col color.Color) {
	c.dc.SetLineWidth(width)
	c.dc.SetColor(col)
	c.dc.DrawLine(x0, y0, x1, y1)
	c.dc.Stroke()
}

func (c *RasterCanvas) StrokePolyline(points []Point, width float64, col color.Color) {
	if len(points) == 0 {
		return
	}
	c.dc.SetLineWidth(width)
	c.dc.SetColor(col)
	c.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.Stroke()
}

func (c *RasterCanvas) Image() image.Image {
	return c.dc.Image()
}

func (c *RasterCanvas) SavePNG(path string) error {
	return c.dc.SavePNG(path)
}
