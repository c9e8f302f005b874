package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/analysis"
	"github.com/audiolibrelab/loopcanvas/internal/capture"
	"github.com/audiolibrelab/loopcanvas/internal/config"
	"github.com/audiolibrelab/loopcanvas/internal/engine"
	"github.com/audiolibrelab/loopcanvas/internal/loop"
	"github.com/audiolibrelab/loopcanvas/internal/render"
	"github.com/audiolibrelab/loopcanvas/internal/video"

	"github.com/spf13/cobra"
)

// runtimeFlags are the overrides shared by the commands that start an engine.
type runtimeFlags struct {
	mute   bool
	filter string
	tone   bool
}

// appRuntime is everything a running engine owns.
type appRuntime struct {
	device capture.Device
	output loop.Output
	canvas *render.RasterCanvas
	sched  *engine.Scheduler
	eng    *engine.Engine
}

func newRuntime(cfg *config.Config, flags runtimeFlags) (*appRuntime, error) {
	c := *cfg
	if flags.mute {
		c.Audio.Mute = true
	}
	if flags.tone {
		c.Audio.Backend = string(capture.BackendTypeTone)
	}
	if flags.filter != "" {
		c.Video.Filter = flags.filter
	}

	filter, err := video.ParseFilter(c.Video.Filter)
	if err != nil {
		return nil, err
	}

	source, err := video.NewSource(&c)
	if err != nil {
		return nil, fmt.Errorf("failed to open video source: %w", err)
	}

	device, err := capture.Open(&c)
	if err != nil {
		slog.Error("Capture device unavailable", "backend", c.Audio.Backend, "error", err)
		return nil, fmt.Errorf("failed to open capture device: %w", err)
	}

	output, err := newOutput(&c, device.Format())
	if err != nil {
		device.Close()
		return nil, err
	}

	clickVolume := c.Audio.ClickVolume
	if c.Audio.NoClick {
		clickVolume = 0
	}

	rt := &appRuntime{
		device: device,
		output: output,
		canvas: render.NewRasterCanvas(c.Render.Width, c.Render.Height),
		sched:  engine.NewScheduler(c.Render.FPS),
	}
	rt.eng, err = engine.New(engine.Options{
		Device: device,
		Output: output,
		Canvas: rt.canvas,
		Video:  source,
		Analysis: analysis.Options{
			Size:      c.Analysis.Resolution,
			Smoothing: c.Analysis.Smoothing,
			MinDB:     c.Analysis.MinDB,
			MaxDB:     c.Analysis.MaxDB,
		},
		Filter:      filter,
		Dispatch:    rt.sched.Post,
		ClickVolume: clickVolume,
	})
	if err != nil {
		output.Close()
		device.Close()
		return nil, err
	}

	slog.Info("Engine ready",
		"backend", c.Audio.Backend,
		"sample_rate", c.Audio.SampleRate,
		"canvas", fmt.Sprintf("%dx%d", c.Render.Width, c.Render.Height),
		"fps", c.Render.FPS,
		"filter", filter,
		"mute", c.Audio.Mute)
	return rt, nil
}

// newOutput plays through the speaker, or mixes silently in memory when
// muted so that analysers still advance.
func newOutput(c *config.Config, f capture.Format) (loop.Output, error) {
	format := f.Beep()
	if c.Audio.Mute {
		out := loop.NewMemoryOutput()
		go out.Run(format.SampleRate, time.Duration(c.Audio.OutputBufferMs)*time.Millisecond)
		return out, nil
	}
	return loop.NewSpeakerOutput(format, time.Duration(c.Audio.OutputBufferMs)*time.Millisecond)
}

func (rt *appRuntime) snapshot(path string) (string, error) {
	if err := rt.canvas.SavePNG(path); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return path, nil
}

func (rt *appRuntime) Close() {
	if err := rt.eng.Close(); err != nil {
		slog.Warn("Failed to close output", "error", err)
	}
	if err := rt.device.Close(); err != nil {
		slog.Warn("Failed to close capture device", "error", err)
	}
}

func addRuntimeFlags(cmd *cobra.Command, flags *runtimeFlags) {
	fs := cmd.Flags()
	fs.BoolVar(&flags.mute, "mute", false, "do not play audio, analyse loops silently")
	fs.BoolVar(&flags.tone, "tone", false, "record a synthetic tone instead of the microphone")
	fs.StringVar(&flags.filter, "filter", "", "initial video filter: off, original, grayscale, negative")
}
