package capture

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/config"
)

func monoFormat() Format {
	return Format{SampleRate: 1000, Channels: 1}
}

func TestFormat_ChunkBytes(t *testing.T) {
	f := Format{SampleRate: 48000, Channels: 2}
	if got := f.ChunkBytes(100 * time.Millisecond); got != 4800*4 {
		t.Errorf("Expected %d bytes, got %d", 4800*4, got)
	}
	if got := f.ChunkBytes(0); got != 4 {
		t.Errorf("Expected at least one frame (4 bytes), got %d", got)
	}
}

func TestConcat_PreservesOrder(t *testing.T) {
	blob := Concat([]Chunk{{1, 2}, {3, 4}, {5, 6}}, monoFormat())
	if !bytes.Equal(blob.Data, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("Unexpected blob data: %v", blob.Data)
	}
	if blob.Frames() != 3 {
		t.Errorf("Expected 3 frames, got %d", blob.Frames())
	}
}

func TestBlob_EmptyBuffer(t *testing.T) {
	blob := Concat(nil, monoFormat())
	if blob.Frames() != 0 {
		t.Errorf("Expected 0 frames, got %d", blob.Frames())
	}
	if blob.Duration() != 0 {
		t.Errorf("Expected zero duration, got %v", blob.Duration())
	}
	if buf := blob.Buffer(); buf.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d frames", buf.Len())
	}
}

func TestBlob_DecodeMonoToStereo(t *testing.T) {
	data := make([]byte, 6)
	encodeSample(data[0:], 0.5)
	encodeSample(data[2:], -0.5)
	encodeSample(data[4:], 0)
	blob := Blob{Format: monoFormat(), Data: append(data, 0x7f)} // trailing partial frame

	buf := blob.Buffer()
	if buf.Len() != 3 {
		t.Fatalf("Expected 3 frames, got %d", buf.Len())
	}

	samples := make([][2]float64, 3)
	n, _ := buf.Streamer(0, buf.Len()).Stream(samples)
	if n != 3 {
		t.Fatalf("Expected 3 samples, got %d", n)
	}
	want := []float64{0.5, -0.5, 0}
	for i, w := range want {
		if math.Abs(samples[i][0]-w) > 0.001 || samples[i][0] != samples[i][1] {
			t.Errorf("Sample %d: expected %.3f on both channels, got %v", i, w, samples[i])
		}
	}
}

func TestBlob_Duration(t *testing.T) {
	blob := Blob{Format: monoFormat(), Data: make([]byte, 2*500)}
	if blob.Duration() != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %v", blob.Duration())
	}
}

func collect(s *streamSession) (*[]Chunk, *int) {
	var chunks []Chunk
	stops := 0
	_ = s.Start(Handlers{
		OnData: func(c Chunk) { chunks = append(chunks, c) },
		OnStop: func() { stops++ },
	})
	return &chunks, &stops
}

func TestStreamSession_ChunksAndFlush(t *testing.T) {
	s := newStreamSession(nil, 4, nil, nil)
	chunks, stops := collect(s)

	if s.State() != SessionRecording {
		t.Fatalf("Expected recording, got %s", s.State())
	}

	s.write([]byte{1, 2, 3})
	if len(*chunks) != 0 {
		t.Errorf("Expected no chunk before 4 bytes, got %d", len(*chunks))
	}
	s.write([]byte{4, 5, 6, 7, 8, 9, 10})
	if len(*chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(*chunks))
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(*chunks) != 3 {
		t.Fatalf("Expected tail chunk on stop, got %d chunks", len(*chunks))
	}
	if !bytes.Equal((*chunks)[2], []byte{9, 10}) {
		t.Errorf("Unexpected tail chunk: %v", (*chunks)[2])
	}
	if *stops != 1 {
		t.Errorf("Expected OnStop once, got %d", *stops)
	}
	if s.State() != SessionInactive {
		t.Errorf("Expected inactive after stop, got %s", s.State())
	}
}

func TestStreamSession_StopTwiceIsNoop(t *testing.T) {
	s := newStreamSession(nil, 4, nil, nil)
	_, stops := collect(s)

	_ = s.Stop()
	_ = s.Stop()
	if *stops != 1 {
		t.Errorf("Expected OnStop exactly once, got %d", *stops)
	}
}

func TestStreamSession_CannotRestart(t *testing.T) {
	s := newStreamSession(nil, 4, nil, nil)
	collect(s)

	if err := s.Start(Handlers{}); err != ErrAlreadyRecording {
		t.Errorf("Expected ErrAlreadyRecording, got %v", err)
	}
	_ = s.Stop()
	if err := s.Start(Handlers{}); err != ErrSessionFinished {
		t.Errorf("Expected ErrSessionFinished, got %v", err)
	}
}

func TestStreamSession_WriteIgnoredWhenInactive(t *testing.T) {
	s := newStreamSession(nil, 2, nil, nil)
	s.write([]byte{1, 2, 3, 4})
	chunks, _ := collect(s)
	if len(*chunks) != 0 {
		t.Errorf("Expected writes before Start to be dropped, got %d chunks", len(*chunks))
	}
}

func TestStreamSession_DispatchesThroughDispatcher(t *testing.T) {
	var queue []func()
	dispatch := func(fn func()) { queue = append(queue, fn) }

	s := newStreamSession(dispatch, 2, nil, nil)
	chunks, stops := collect(s)

	s.write([]byte{1, 2, 3, 4})
	_ = s.Stop()

	if len(*chunks) != 0 || *stops != 0 {
		t.Fatalf("Expected handlers to wait for the dispatcher")
	}
	if len(queue) != 3 {
		t.Fatalf("Expected 3 queued callbacks, got %d", len(queue))
	}
	for _, fn := range queue {
		fn()
	}
	if len(*chunks) != 2 || *stops != 1 {
		t.Errorf("Expected 2 chunks and one stop, got %d and %d", len(*chunks), *stops)
	}
}

func TestToneDevice_DeliversOnlyWhenRunningAndAttached(t *testing.T) {
	d := NewToneDevice(monoFormat(), 10*time.Millisecond, 100)
	defer d.Close()

	if d.State() != DeviceSuspended {
		t.Fatalf("Expected new device to be suspended, got %s", d.State())
	}

	sess, err := d.NewSession(nil)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	var got int
	if err := sess.Start(Handlers{OnData: func(c Chunk) { got += len(c) }}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	d.deliver(d.Synthesize(20))
	if got != 0 {
		t.Errorf("Expected nothing delivered while suspended, got %d bytes", got)
	}

	d.setState(DeviceRunning)
	d.deliver(d.Synthesize(20))
	if got != 40 {
		t.Errorf("Expected 40 bytes delivered, got %d", got)
	}

	_ = sess.Stop()
	d.deliver(d.Synthesize(20))
	if got != 40 {
		t.Errorf("Expected nothing delivered after stop, got %d bytes", got)
	}
	d.setState(DeviceSuspended)
}

func TestToneDevice_SynthesizeIsBounded(t *testing.T) {
	d := NewToneDevice(Format{SampleRate: 8000, Channels: 2}, 10*time.Millisecond, 440)
	pcm := d.Synthesize(800)
	if len(pcm) != 800*4 {
		t.Fatalf("Expected %d bytes, got %d", 800*4, len(pcm))
	}
	peak := 0.0
	for i := 0; i+1 < len(pcm); i += 2 {
		v := math.Abs(decodeSample(pcm[i:]))
		if v > peak {
			peak = v
		}
	}
	if peak < 0.3 || peak > 0.51 {
		t.Errorf("Expected peak near 0.5, got %.3f", peak)
	}
}

func TestToneDevice_ResumeAndClose(t *testing.T) {
	d := NewToneDevice(monoFormat(), 5*time.Millisecond, 100)
	if err := d.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if d.State() != DeviceRunning {
		t.Errorf("Expected running, got %s", d.State())
	}
	if err := d.Resume(); err != nil {
		t.Errorf("Expected second Resume to be a no-op, got %v", err)
	}
	_ = d.Close()
	if d.State() != DeviceClosed {
		t.Errorf("Expected closed, got %s", d.State())
	}
	if _, err := d.NewSession(nil); err != ErrDeviceClosed {
		t.Errorf("Expected ErrDeviceClosed, got %v", err)
	}
	if err := d.Resume(); err != ErrDeviceClosed {
		t.Errorf("Expected ErrDeviceClosed on resume, got %v", err)
	}
}

func TestDetermineBackend(t *testing.T) {
	cases := map[string]BackendType{
		"auto":  BackendTypeMalgo,
		"":      BackendTypeMalgo,
		"MALGO": BackendTypeMalgo,
		"tone":  BackendTypeTone,
	}
	for in, want := range cases {
		cfg := config.Default()
		cfg.Audio.Backend = in
		if got := determineBackend(cfg); got != want {
			t.Errorf("determineBackend(%q) = %s, want %s", in, got, want)
		}
	}

	cfg := config.Default()
	cfg.Audio.Backend = "jack"
	if _, err := NewBackend(cfg); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestOpen_ToneBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.Backend = "tone"

	d, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer d.Close()

	if d.Format().SampleRate != cfg.Audio.SampleRate || d.Format().Channels != cfg.Audio.Channels {
		t.Errorf("Unexpected format: %+v", d.Format())
	}
}
