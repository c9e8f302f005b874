// Package console is a terminal front end for the engine: the same key
// commands as the window, a status line and a text rendering of every loop.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/analysis"
	"github.com/audiolibrelab/loopcanvas/internal/engine"
	"github.com/audiolibrelab/loopcanvas/internal/recorder"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const refreshInterval = 50 * time.Millisecond

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000fff"))
	recordingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff3b30"))
	idleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8e8e93"))
	waveStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#000fff"))
	spectrumStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5856d6"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8e8e93"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff3b30")).Bold(true)
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#000fff")).Padding(0, 1)
)

// Snapshotter saves the current canvas; it runs on the engine goroutine.
type Snapshotter func() (string, error)

type tickMsg time.Time

type savedMsg struct {
	path string
	err  error
}

// Model is the bubbletea model. Commands are posted to the scheduler; the
// view only reads the engine's published snapshot.
type Model struct {
	eng      *engine.Engine
	post     func(func())
	snapshot Snapshotter

	width   int
	message string
}

func New(eng *engine.Engine, post func(func()), snapshot Snapshotter) Model {
	return Model{eng: eng, post: post, snapshot: snapshot, width: 80}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		return m, tick()
	case savedMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("snapshot failed: %v", msg.err)
		} else {
			m.message = "saved " + msg.path
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "w":
		if m.snapshot == nil {
			m.message = "no snapshot path configured"
			return m, nil
		}
		return m, m.saveCmd()
	}

	cmd, ok := engine.CommandForKey(key)
	if !ok {
		return m, nil
	}
	m.message = cmd.String()
	eng := m.eng
	m.post(func() { _ = eng.Do(cmd) })
	return m, nil
}

// saveCmd hands the snapshot to the engine goroutine and waits for it.
func (m Model) saveCmd() tea.Cmd {
	snapshot, post := m.snapshot, m.post
	return func() tea.Msg {
		done := make(chan savedMsg, 1)
		post(func() {
			path, err := snapshot()
			done <- savedMsg{path: path, err: err}
		})
		return <-done
	}
}

func (m Model) View() string {
	s := m.eng.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("loopcanvas"))
	b.WriteString("  ")
	if s.State == recorder.StateRecording {
		b.WriteString(recordingStyle.Render(fmt.Sprintf("● %s %s (%d chunks)", s.State, shortID(s.SessionID), s.Pending)))
	} else {
		b.WriteString(idleStyle.Render(string(s.State)))
	}
	b.WriteString(fmt.Sprintf("  loops: %d  filter: %s  frames: %d\n", s.Loops, s.Filter, s.Frames))

	waveWidth := m.width - 10
	if waveWidth < 16 {
		waveWidth = 16
	}
	var rows []string
	for i, w := range s.Waveforms {
		rows = append(rows, fmt.Sprintf("%2d ", i+1)+waveStyle.Render(Sparkline(w, waveWidth)))
		if i < len(s.Spectra) {
			rows = append(rows, "   "+spectrumStyle.Render(Spectrum(s.Spectra[i], waveWidth)))
		}
	}
	if len(rows) == 0 {
		rows = append(rows, mutedStyle.Render("no loops yet, press r to record"))
	}
	b.WriteString(panelStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	if s.LastError != "" {
		b.WriteString(errorStyle.Render(s.LastError) + "\n")
	}
	if m.message != "" {
		b.WriteString(mutedStyle.Render(m.message) + "\n")
	}
	b.WriteString(mutedStyle.Render(help()))
	return b.String()
}

func help() string {
	parts := make([]string, 0, len(engine.Bindings)+2)
	for _, bd := range engine.Bindings {
		parts = append(parts, bd.Key+" "+bd.Label)
	}
	parts = append(parts, "w snapshot", "q quit")
	return strings.Join(parts, " · ")
}

// shortID keeps the first block of a session UUID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

var levels = []rune(" ▁▂▃▄▅▆▇█")

// Sparkline renders time-domain bytes as width cells, each showing the peak
// deviation from silence of the samples it covers.
func Sparkline(wave []byte, width int) string {
	if width <= 0 {
		return ""
	}
	out := make([]rune, width)
	for c := range out {
		from := c * len(wave) / width
		to := (c + 1) * len(wave) / width
		peak := 0.0
		for _, v := range wave[from:to] {
			a := analysis.Amplitude(v)
			if a < 0 {
				a = -a
			}
			if a > peak {
				peak = a
			}
		}
		idx := int(peak*float64(len(levels)-1) + 0.5)
		if idx >= len(levels) {
			idx = len(levels) - 1
		}
		out[c] = levels[idx]
	}
	return string(out)
}

// Spectrum renders frequency bytes as width cells, each showing the loudest
// bin it covers.
func Spectrum(bins []byte, width int) string {
	if width <= 0 {
		return ""
	}
	out := make([]rune, width)
	for c := range out {
		from := c * len(bins) / width
		to := (c + 1) * len(bins) / width
		var peak byte
		for _, v := range bins[from:to] {
			peak = max(peak, v)
		}
		out[c] = levels[int(peak)*(len(levels)-1)/255]
	}
	return string(out)
}
