// Package engine ties the recorder, the loop registry, the video filter and
// the renderer together. An Engine is confined to one goroutine: the
// Scheduler's, or the window's update loop.
package engine

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/analysis"
	"github.com/audiolibrelab/loopcanvas/internal/capture"
	"github.com/audiolibrelab/loopcanvas/internal/loop"
	"github.com/audiolibrelab/loopcanvas/internal/recorder"
	"github.com/audiolibrelab/loopcanvas/internal/render"
	"github.com/audiolibrelab/loopcanvas/internal/video"
	"github.com/gopxl/beep/v2"
)

type Options struct {
	Device capture.Device
	Output loop.Output
	Canvas render.Canvas
	// Video is optional; without it the filter only changes the status.
	Video    video.Source
	Analysis analysis.Options
	Filter   video.FilterState
	// Dispatch moves capture callbacks onto the engine goroutine, usually
	// Scheduler.Post. Nil runs them where they are raised.
	Dispatch capture.Dispatcher
	// ClickVolume above zero plays a click on every command.
	ClickVolume float64
}

type Engine struct {
	registry *loop.Registry
	recorder *recorder.Controller
	renderer *render.Renderer
	canvas   render.Canvas
	video    video.Source
	output   loop.Output
	filter   video.FilterState

	sampleRate  int
	clickVolume float64

	start     time.Time
	frames    uint64
	lastError string
	tracks    []*track

	status atomic.Pointer[Status]
}

func New(opts Options) (*Engine, error) {
	if opts.Device == nil || opts.Output == nil || opts.Canvas == nil {
		return nil, errors.New("engine needs a capture device, an output and a canvas")
	}
	if opts.Video == nil {
		opts.Video = video.NoSource{}
	}
	if opts.Analysis.Size == 0 {
		opts.Analysis = analysis.DefaultOptions()
	}

	registry := loop.NewRegistry()
	e := &Engine{
		registry:    registry,
		recorder:    recorder.New(opts.Device, registry, opts.Output, opts.Analysis, opts.Dispatch),
		renderer:    render.NewRenderer(opts.Analysis.Size / 2),
		canvas:      opts.Canvas,
		video:       opts.Video,
		output:      opts.Output,
		filter:      opts.Filter,
		sampleRate:  opts.Device.Format().SampleRate,
		clickVolume: opts.ClickVolume,
		start:       time.Now(),
	}
	e.recorder.OnError = func(err error) { e.setLastError(err.Error()) }
	e.recorder.OnLoop = func(l *loop.Loop) {
		slog.Debug("Loop ready", "frames", l.Frames(), "loops", e.registry.Len())
		e.publish()
	}
	e.publish()
	return e, nil
}

// Do runs one command. Illegal transitions and empty-registry operations are
// silent no-ops; only real failures are returned.
func (e *Engine) Do(cmd Command) error {
	slog.Debug("Command", "command", cmd.String())
	e.click()

	var err error
	switch cmd.Kind {
	case CmdRecord:
		e.clearLastError()
		if err = e.recorder.Record(); err != nil {
			e.setLastError(fmt.Sprintf("Failed to start recording: %v", err))
		}
	case CmdStop:
		if err = e.recorder.Stop(); err != nil {
			e.setLastError(fmt.Sprintf("Failed to stop recording: %v", err))
		}
	case CmdPlay:
		e.registry.PlayAll()
	case CmdDeleteLast:
		e.DeleteLast()
	case CmdDeleteAll:
		e.DeleteAll()
	case CmdFilter:
		e.SetFilter(cmd.Filter)
	default:
		err = fmt.Errorf("unknown command: %s", cmd.Kind)
	}
	e.publish()
	return err
}

// DeleteLast stops and releases the newest loop before returning.
func (e *Engine) DeleteLast() {
	l, ok := e.registry.PopLast()
	if !ok {
		return
	}
	l.Release()
	slog.Info("Deleted last loop", "loops", e.registry.Len())
}

// DeleteAll stops and releases every loop and clears the canvas.
func (e *Engine) DeleteAll() {
	if n := e.registry.ClearAll(); n > 0 {
		slog.Info("Deleted all loops", "count", n)
	}
	e.tracks = e.tracks[:0]
	e.canvas.Clear()
}

// SetFilter replaces the filter state; the last call wins.
func (e *Engine) SetFilter(f video.FilterState) {
	e.filter = f
}

func (e *Engine) Filter() video.FilterState {
	return e.filter
}

func (e *Engine) Registry() *loop.Registry {
	return e.registry
}

func (e *Engine) Recorder() *recorder.Controller {
	return e.recorder
}

func (e *Engine) Canvas() render.Canvas {
	return e.canvas
}

// Tick draws one frame from the current registry and filter.
func (e *Engine) Tick() {
	var frame image.Image
	if e.filter != video.Off {
		if src := e.video.Frame(time.Since(e.start)); src != nil {
			frame = video.Apply(src, e.filter)
		}
	}

	e.syncTracks()
	samplers := make([]render.Sampler, len(e.tracks))
	for i, t := range e.tracks {
		samplers[i] = t
	}
	e.renderer.Draw(e.canvas, frame, samplers)
	for _, t := range e.tracks {
		t.sampleSpectrum()
	}
	e.frames++
	e.publish()
}

// syncTracks keeps one track per registry entry, in registry order.
func (e *Engine) syncTracks() {
	n := e.registry.Len()
	if len(e.tracks) > n {
		e.tracks = e.tracks[:n]
	}
	for i := 0; i < n; i++ {
		l := e.registry.At(i)
		if i < len(e.tracks) && e.tracks[i].loop == l {
			continue
		}
		if i < len(e.tracks) {
			e.tracks[i] = &track{loop: l}
		} else {
			e.tracks = append(e.tracks, &track{loop: l})
		}
	}
}

func (e *Engine) click() {
	if e.clickVolume <= 0 {
		return
	}
	c, err := loop.Click(beep.SampleRate(e.sampleRate), e.clickVolume)
	if err != nil {
		slog.Debug("Click unavailable", "error", err)
		return
	}
	e.output.Connect(c)
}

func (e *Engine) setLastError(msg string) {
	e.lastError = msg
	slog.Error("Engine error", "error", msg)
}

func (e *Engine) clearLastError() {
	e.lastError = ""
}

// Close releases every loop and the output.
func (e *Engine) Close() error {
	if err := e.recorder.Stop(); err != nil {
		slog.Warn("Failed to stop recording on close", "error", err)
	}
	e.registry.ClearAll()
	return e.output.Close()
}

// track remembers the waveform drawn last frame and the spectrum sampled
// with it so status surfaces can show them without reading the analyser
// again.
type track struct {
	loop     *loop.Loop
	last     []byte
	spectrum []byte
}

func (t *track) Waveform(dst []byte) int {
	n := t.loop.Waveform(dst)
	if cap(t.last) < n {
		t.last = make([]byte, n)
	}
	t.last = t.last[:n]
	copy(t.last, dst[:n])
	return n
}

func (t *track) sampleSpectrum() {
	if t.spectrum == nil {
		t.spectrum = make([]byte, t.loop.Analyser().BinCount())
	}
	t.loop.Spectrum(t.spectrum)
}
