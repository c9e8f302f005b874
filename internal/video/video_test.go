package video

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/config"
)

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want FilterState
	}{
		{"off", Off},
		{"original", Original},
		{"origin", Original},
		{"Grayscale", Grayscale},
		{" negative ", Negative},
	}
	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		if err != nil {
			t.Errorf("ParseFilter(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilter(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFilter("sepia"); err == nil {
		t.Error("Expected error for unknown filter")
	}
}

func TestFilterString(t *testing.T) {
	for f, name := range filterNames {
		if f.String() != name {
			t.Errorf("Expected %s, got %s", name, f.String())
		}
	}
	if FilterState(9).String() != "FilterState(9)" {
		t.Errorf("Unexpected name for unknown state: %s", FilterState(9).String())
	}
}

func TestApply_Off(t *testing.T) {
	if Apply(solid(color.RGBA{R: 1, A: 255}), Off) != nil {
		t.Error("Expected no frame when filter is off")
	}
	if Apply(nil, Original) != nil {
		t.Error("Expected no frame without a source frame")
	}
}

func TestApply_OriginalIsIdentity(t *testing.T) {
	in := solid(color.RGBA{R: 10, G: 20, B: 30, A: 255})
	out := Apply(in, Original)
	if out.RGBAAt(2, 1) != in.RGBAAt(2, 1) {
		t.Errorf("Expected identical pixel, got %v", out.RGBAAt(2, 1))
	}
	out.SetRGBA(0, 0, color.RGBA{})
	if in.RGBAAt(0, 0).R != 10 {
		t.Error("Expected Apply to leave the source frame untouched")
	}
}

func TestApply_Grayscale(t *testing.T) {
	out := Apply(solid(color.RGBA{R: 255, G: 0, B: 0, A: 255}), Grayscale)
	c := out.RGBAAt(1, 1)
	if c.R != c.G || c.G != c.B {
		t.Fatalf("Expected a gray pixel, got %v", c)
	}
	if c.R != 54 {
		t.Errorf("Expected luminance 54 for pure red, got %d", c.R)
	}

	white := Apply(solid(color.RGBA{R: 255, G: 255, B: 255, A: 255}), Grayscale)
	if white.RGBAAt(0, 0).R != 255 {
		t.Errorf("Expected white to stay white, got %v", white.RGBAAt(0, 0))
	}
}

func TestApply_NegativeKeepsAlpha(t *testing.T) {
	out := Apply(solid(color.RGBA{R: 10, G: 200, B: 255, A: 255}), Negative)
	want := color.RGBA{R: 245, G: 55, B: 0, A: 255}
	if got := out.RGBAAt(3, 2); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestApply_NegativeTranslucent(t *testing.T) {
	out := Apply(solid(color.RGBA{A: 128}), Negative)
	want := color.RGBA{R: 128, G: 128, B: 128, A: 128}
	if got := out.RGBAAt(0, 0); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if got := Apply(solid(color.RGBA{}), Negative).RGBAAt(0, 0); got != (color.RGBA{}) {
		t.Errorf("Expected transparent pixel to stay transparent, got %v", got)
	}
}

func TestApply_NonZeroOrigin(t *testing.T) {
	in := solid(color.RGBA{R: 100, A: 255}).SubImage(image.Rect(1, 1, 3, 3))
	out := Apply(in, Original)
	if out.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Errorf("Expected bounds rebased to origin, got %v", out.Bounds())
	}
	if out.RGBAAt(0, 0).R != 100 {
		t.Errorf("Expected copied pixel, got %v", out.RGBAAt(0, 0))
	}
}

func TestPatternSource_Scrolls(t *testing.T) {
	s := NewPatternSource(70, 5)
	first := s.Frame(0).(*image.RGBA).RGBAAt(0, 0)
	if first != barColors[0] {
		t.Errorf("Expected first bar colour at t=0, got %v", first)
	}
	later := s.Frame(time.Second).(*image.RGBA).RGBAAt(0, 0)
	if later != barColors[1] {
		t.Errorf("Expected second bar colour after one second, got %v", later)
	}
}

func TestImageSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := png.Encode(f, solid(color.RGBA{G: 255, A: 255})); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f.Close()

	cfg := config.Default()
	cfg.Video.Source = "image"
	cfg.Video.Path = path
	src, err := NewSource(cfg)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	img := src.Frame(0)
	if img == nil || img.Bounds().Dx() != 4 {
		t.Fatalf("Expected the decoded image, got %v", img)
	}

	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.Default()
	cfg.Video.Source = "none"
	src, err := NewSource(cfg)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	if src.Frame(time.Second) != nil {
		t.Error("Expected no frame from none source")
	}

	cfg.Video.Source = "pattern"
	src, _ = NewSource(cfg)
	if src.Frame(0).Bounds() != image.Rect(0, 0, 320, 180) {
		t.Errorf("Expected quarter-size pattern, got %v", src.Frame(0).Bounds())
	}

	cfg.Video.Source = "webcam"
	if _, err := NewSource(cfg); err == nil {
		t.Error("Expected error for unknown source")
	}
}
