// Package display shows the canvas in a desktop window and turns key presses
// into engine commands.
package display

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/engine"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var background = color.RGBA{255, 255, 255, 255}

var keyNames = []struct {
	key  ebiten.Key
	name string
}{
	{ebiten.KeyR, "r"},
	{ebiten.KeyS, "s"},
	{ebiten.KeyP, "p"},
	{ebiten.KeyBackspace, "backspace"},
	{ebiten.KeyDelete, "delete"},
	{ebiten.KeyDigit1, "1"},
	{ebiten.KeyDigit2, "2"},
	{ebiten.KeyDigit3, "3"},
	{ebiten.KeyDigit0, "0"},
}

// Window implements ebiten.Game. ebiten calls Update and Draw on one
// goroutine, which becomes the engine goroutine.
type Window struct {
	eng   *engine.Engine
	sched *engine.Scheduler
	frame *ebiten.Image

	width, height int
	showStatus    bool
}

func New(eng *engine.Engine, sched *engine.Scheduler) *Window {
	w, h := eng.Canvas().Size()
	return &Window{
		eng:        eng,
		sched:      sched,
		frame:      ebiten.NewImage(w, h),
		width:      w,
		height:     h,
		showStatus: true,
	}
}

func (w *Window) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		w.showStatus = !w.showStatus
	}
	for _, k := range keyNames {
		if !inpututil.IsKeyJustPressed(k.key) {
			continue
		}
		if cmd, ok := engine.CommandForKey(k.name); ok {
			if err := w.eng.Do(cmd); err != nil {
				slog.Warn("Command failed", "command", cmd.String(), "error", err)
			}
		}
	}

	w.sched.Drain()
	w.eng.Tick()
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	switch img := w.eng.Canvas().Image().(type) {
	case *image.RGBA:
		if len(img.Pix) == 4*w.width*w.height {
			w.frame.WritePixels(img.Pix)
		}
	case nil:
	default:
		w.frame.Dispose()
		w.frame = ebiten.NewImageFromImage(img)
	}
	screen.DrawImage(w.frame, nil)

	if w.showStatus {
		ebitenutil.DebugPrint(screen, statusLine(w.eng.Snapshot()))
	}
}

func (w *Window) Layout(_, _ int) (int, int) {
	return w.width, w.height
}

// Run opens the window and blocks until it is closed. Updates run at the
// scheduler's frame rate.
func (w *Window) Run(title string) error {
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(int(time.Second / w.sched.Interval()))

	if err := ebiten.RunGame(w); err != nil {
		return fmt.Errorf("window closed with error: %w", err)
	}
	return nil
}

func statusLine(s engine.Status) string {
	state := string(s.State)
	if s.SessionID != "" {
		state += " " + s.SessionID
	}
	line := fmt.Sprintf("%s  loops: %d  filter: %s  [R]ec [S]top [P]lay [Bksp] del last [Del] del all [1-3,0] filter [H]ide",
		state, s.Loops, s.Filter)
	if s.LastError != "" {
		line += "\n" + s.LastError
	}
	return line
}
