package loop

import (
	"math"
	"testing"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/analysis"
	"github.com/gopxl/beep/v2"
)

var testFormat = beep.Format{SampleRate: 48000, NumChannels: 1, Precision: 2}

func makeBuffer(values ...float64) *beep.Buffer {
	buf := beep.NewBuffer(testFormat)
	pos := 0
	buf.Append(beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(values) {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < len(values) {
			samples[n] = [2]float64{values[pos], values[pos]}
			n++
			pos++
		}
		return n, true
	}))
	return buf
}

func smallOptions() analysis.Options {
	o := analysis.DefaultOptions()
	o.Size = 32
	return o
}

func stream(s beep.Streamer, n int) ([][2]float64, int, bool) {
	samples := make([][2]float64, n)
	got, ok := s.Stream(samples)
	return samples, got, ok
}

func TestHandle_PausedEmitsSilence(t *testing.T) {
	h := NewHandle(makeBuffer(0.5, 0.5))
	samples, n, ok := stream(h, 4)
	if n != 4 || !ok {
		t.Fatalf("Expected 4 frames and ok, got %d %v", n, ok)
	}
	for i, s := range samples {
		if s[0] != 0 || s[1] != 0 {
			t.Errorf("Frame %d: expected silence, got %v", i, s)
		}
	}
}

func TestHandle_LoopsContinuously(t *testing.T) {
	h := NewHandle(makeBuffer(0.1, 0.2, 0.3))
	h.Play()

	samples, n, _ := stream(h, 7)
	if n != 7 {
		t.Fatalf("Expected 7 frames, got %d", n)
	}
	want := []float64{0.1, 0.2, 0.3, 0.1, 0.2, 0.3, 0.1}
	for i, w := range want {
		if math.Abs(samples[i][0]-w) > 1e-9 {
			t.Errorf("Frame %d: expected %.1f, got %.3f", i, w, samples[i][0])
		}
	}
	if h.Position() != 1 {
		t.Errorf("Expected position 1, got %d", h.Position())
	}
}

func TestHandle_Rewind(t *testing.T) {
	h := NewHandle(makeBuffer(0.1, 0.2, 0.3))
	h.Play()
	stream(h, 2)
	h.Rewind()
	if h.Position() != 0 {
		t.Errorf("Expected position 0 after rewind, got %d", h.Position())
	}
}

func TestHandle_EmptyBufferPlaysSilence(t *testing.T) {
	h := NewHandle(makeBuffer())
	h.Play()
	samples, n, ok := stream(h, 3)
	if n != 3 || !ok {
		t.Fatalf("Expected 3 frames and ok, got %d %v", n, ok)
	}
	if samples[0][0] != 0 {
		t.Errorf("Expected silence, got %v", samples[0])
	}
	if h.Len() != 0 {
		t.Errorf("Expected length 0, got %d", h.Len())
	}
}

func TestHandle_Release(t *testing.T) {
	h := NewHandle(makeBuffer(0.5))
	h.Play()
	h.Release()

	if _, n, ok := stream(h, 4); n != 0 || ok {
		t.Errorf("Expected released handle to end, got %d %v", n, ok)
	}
	h.Play()
	if h.Playing() {
		t.Error("Expected released handle to stay paused")
	}
	if !h.Released() {
		t.Error("Expected handle to report released")
	}
}

func TestLoop_WiredOnceAndPaused(t *testing.T) {
	out := NewMemoryOutput()
	l, err := New(makeBuffer(0.5, 0.5, 0.5, 0.5), out, smallOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if out.Connected() != 1 {
		t.Fatalf("Expected 1 connected stream, got %d", out.Connected())
	}
	if l.Handle().Playing() {
		t.Error("Expected new loop to be paused")
	}

	mix := out.Pull(8)
	for i, s := range mix {
		if s[0] != 0 {
			t.Fatalf("Frame %d: expected silence before play, got %v", i, s)
		}
	}

	wave := make([]byte, 32)
	l.Waveform(wave)
	if wave[31] != analysis.Silence {
		t.Errorf("Expected flat waveform before play, got %d", wave[31])
	}
}

func TestLoop_PlayReachesOutputAndAnalyser(t *testing.T) {
	out := NewMemoryOutput()
	l, _ := New(makeBuffer(0.5, 0.5), out, smallOptions())
	l.Play()

	mix := out.Pull(4)
	if math.Abs(mix[3][0]-0.5) > 1e-9 {
		t.Errorf("Expected 0.5 at output, got %.3f", mix[3][0])
	}

	wave := make([]byte, 32)
	l.Waveform(wave)
	if wave[31] != 192 {
		t.Errorf("Expected last waveform byte 192, got %d", wave[31])
	}
}

func TestLoop_UnitGainSum(t *testing.T) {
	out := NewMemoryOutput()
	a, _ := New(makeBuffer(0.25), out, smallOptions())
	b, _ := New(makeBuffer(0.5), out, smallOptions())
	a.Play()
	b.Play()

	mix := out.Pull(2)
	if math.Abs(mix[0][0]-0.75) > 1e-9 {
		t.Errorf("Expected summed sample 0.75, got %.3f", mix[0][0])
	}
}

func TestLoop_ReleaseDisconnects(t *testing.T) {
	out := NewMemoryOutput()
	l, _ := New(makeBuffer(0.5), out, smallOptions())
	l.Play()
	l.Release()

	out.Pull(4)
	if out.Connected() != 0 {
		t.Errorf("Expected released loop to be dropped from the bus, got %d", out.Connected())
	}
	if l.Handle().Position() != 0 {
		t.Errorf("Expected released loop rewound, got position %d", l.Handle().Position())
	}
}

func TestLoop_Duration(t *testing.T) {
	values := make([]float64, 4800)
	l, _ := New(makeBuffer(values...), NewMemoryOutput(), smallOptions())
	if l.Duration() != 100*time.Millisecond {
		t.Errorf("Expected 100ms, got %v", l.Duration())
	}
	if l.Frames() != 4800 {
		t.Errorf("Expected 4800 frames, got %d", l.Frames())
	}
}

func TestRegistry_OrderAndPop(t *testing.T) {
	out := NewMemoryOutput()
	r := NewRegistry()
	if _, ok := r.PopLast(); ok {
		t.Error("Expected PopLast on empty registry to report false")
	}

	var created []*Loop
	for i := 0; i < 3; i++ {
		l, _ := New(makeBuffer(0.1), out, smallOptions())
		r.Append(l)
		created = append(created, l)
	}
	if r.Len() != 3 {
		t.Fatalf("Expected 3 loops, got %d", r.Len())
	}
	r.Each(func(i int, l *Loop) {
		if l != created[i] {
			t.Errorf("Loop %d out of order", i)
		}
	})

	last, ok := r.PopLast()
	if !ok || last != created[2] {
		t.Fatal("Expected PopLast to return the last appended loop")
	}
	if r.Len() != 2 || r.At(1) != created[1] {
		t.Error("Expected the first two loops to remain in order")
	}
}

func TestRegistry_PlayAllRewinds(t *testing.T) {
	out := NewMemoryOutput()
	r := NewRegistry()
	for i := 0; i < 2; i++ {
		l, _ := New(makeBuffer(0.1, 0.2, 0.3, 0.4), out, smallOptions())
		r.Append(l)
	}
	r.PlayAll()
	out.Pull(3)
	r.PlayAll()

	r.Each(func(i int, l *Loop) {
		if !l.Handle().Playing() {
			t.Errorf("Loop %d: expected playing", i)
		}
		if l.Handle().Position() != 0 {
			t.Errorf("Loop %d: expected position 0, got %d", i, l.Handle().Position())
		}
	})
}

func TestRegistry_ClearAll(t *testing.T) {
	out := NewMemoryOutput()
	r := NewRegistry()
	if n := r.ClearAll(); n != 0 {
		t.Errorf("Expected 0 cleared on empty registry, got %d", n)
	}

	var loops []*Loop
	for i := 0; i < 3; i++ {
		l, _ := New(makeBuffer(0.1), out, smallOptions())
		r.Append(l)
		loops = append(loops, l)
	}
	r.PlayAll()

	if n := r.ClearAll(); n != 3 {
		t.Errorf("Expected 3 cleared, got %d", n)
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", r.Len())
	}
	for i, l := range loops {
		if l.Handle().Playing() || !l.Handle().Released() {
			t.Errorf("Loop %d: expected paused and released", i)
		}
	}
}

func TestClick(t *testing.T) {
	click, err := Click(testFormat.SampleRate, 0.3)
	if err != nil {
		t.Fatalf("Click failed: %v", err)
	}

	total := 0
	peak := 0.0
	buf := make([][2]float64, 512)
	for {
		n, ok := click.Stream(buf)
		if !ok {
			break
		}
		for _, s := range buf[:n] {
			peak = math.Max(peak, math.Abs(s[0]))
		}
		total += n
	}
	if want := testFormat.SampleRate.N(clickLength); total != want {
		t.Errorf("Expected %d frames, got %d", want, total)
	}
	if peak > 0.3+1e-9 || peak == 0 {
		t.Errorf("Expected peak in (0, 0.3], got %.3f", peak)
	}
}
