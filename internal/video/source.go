package video

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/config"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Source produces the video frame shown at a point in time. A nil frame
// means there is nothing to show.
type Source interface {
	Frame(at time.Duration) image.Image
}

// NewSource builds the source named by cfg.Video.Source.
func NewSource(cfg *config.Config) (Source, error) {
	switch cfg.Video.Source {
	case "", "pattern":
		return NewPatternSource(cfg.Render.Width/4, cfg.Render.Height/4), nil
	case "image":
		return LoadImage(cfg.Video.Path)
	case "none":
		return NoSource{}, nil
	default:
		return nil, fmt.Errorf("unknown video source: %s", cfg.Video.Source)
	}
}

// NoSource never has a frame.
type NoSource struct{}

func (NoSource) Frame(time.Duration) image.Image { return nil }

// ImageSource shows the same still picture forever.
type ImageSource struct {
	img image.Image
}

func LoadImage(path string) (*ImageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	slog.Debug("Loaded video image", "path", path, "format", format, "size", img.Bounds().Size())
	return &ImageSource{img: img}, nil
}

func (s *ImageSource) Frame(time.Duration) image.Image {
	return s.img
}

var barColors = []color.RGBA{
	{R: 192, G: 192, B: 192, A: 255},
	{R: 192, G: 192, B: 0, A: 255},
	{R: 0, G: 192, B: 192, A: 255},
	{R: 0, G: 192, B: 0, A: 255},
	{R: 192, G: 0, B: 192, A: 255},
	{R: 192, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 192, A: 255},
}

// PatternSource renders colour bars that scroll sideways, one bar width per
// second. It stands in for a webcam.
type PatternSource struct {
	width, height int
	frame         *image.RGBA
}

func NewPatternSource(width, height int) *PatternSource {
	if width < len(barColors) {
		width = len(barColors)
	}
	if height < 1 {
		height = 1
	}
	return &PatternSource{
		width:  width,
		height: height,
		frame:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (s *PatternSource) Frame(at time.Duration) image.Image {
	bar := s.width / len(barColors)
	shift := int(at.Seconds() * float64(bar))
	if shift < 0 {
		shift = 0
	}
	for x := 0; x < s.width; x++ {
		c := barColors[((x+shift)/bar)%len(barColors)]
		for y := 0; y < s.height; y++ {
			s.frame.SetRGBA(x, y, c)
		}
	}
	return s.frame
}
