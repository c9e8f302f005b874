package console

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/audiolibrelab/loopcanvas/internal/analysis"
	tea "github.com/charmbracelet/bubbletea"
)

func TestSparkline_Silence(t *testing.T) {
	wave := make([]byte, 64)
	for i := range wave {
		wave[i] = analysis.Silence
	}
	line := Sparkline(wave, 16)
	if utf8.RuneCountInString(line) != 16 {
		t.Fatalf("Expected 16 cells, got %d", utf8.RuneCountInString(line))
	}
	if strings.Trim(line, " ") != "" {
		t.Errorf("Expected blank line for silence, got %q", line)
	}
}

func TestSparkline_FullScale(t *testing.T) {
	wave := make([]byte, 8)
	for i := range wave {
		wave[i] = 0
	}
	if line := Sparkline(wave, 4); line != "████" {
		t.Errorf("Expected full bars, got %q", line)
	}
}

func TestSparkline_Empty(t *testing.T) {
	if line := Sparkline(nil, 3); line != "   " {
		t.Errorf("Expected blank cells for an empty waveform, got %q", line)
	}
	if Sparkline([]byte{1}, 0) != "" {
		t.Error("Expected empty string for zero width")
	}
}

func TestSpectrum_PeakPerCell(t *testing.T) {
	bins := []byte{0, 0, 255, 0, 0, 0, 128, 0}
	if line := Spectrum(bins, 4); line != " █ ▄" {
		t.Errorf("Expected \" █ ▄\", got %q", line)
	}
	if Spectrum(bins, 0) != "" {
		t.Error("Expected empty string for zero width")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("1b4e28ba-2fa1-11d2-883f-0016d3cca427"); got != "1b4e28ba" {
		t.Errorf("Expected first block, got %q", got)
	}
	if got := shortID(""); got != "" {
		t.Errorf("Expected empty id, got %q", got)
	}
}

func TestModel_KeysPostCommands(t *testing.T) {
	var posted int
	m := New(nil, func(func()) { posted++ }, nil)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if posted != 1 {
		t.Errorf("Expected record to be posted, got %d posts", posted)
	}
	if next.(Model).message != "record" {
		t.Errorf("Expected message 'record', got %q", next.(Model).message)
	}

	next.(Model).Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if posted != 2 {
		t.Errorf("Expected delete last to be posted, got %d posts", posted)
	}

	next.(Model).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if posted != 2 {
		t.Errorf("Expected unbound key to be ignored, got %d posts", posted)
	}
}

func TestModel_Quit(t *testing.T) {
	m := New(nil, func(func()) {}, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestModel_SnapshotWithoutPath(t *testing.T) {
	m := New(nil, func(func()) {}, nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	if cmd != nil {
		t.Error("Expected no command without a snapshot path")
	}
	if next.(Model).message == "" {
		t.Error("Expected an explanatory message")
	}
}

func TestModel_SnapshotRunsOnEngineGoroutine(t *testing.T) {
	posts := make(chan func(), 1)
	m := New(nil, func(fn func()) { posts <- fn }, func() (string, error) { return "/tmp/frame.png", nil })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	if cmd == nil {
		t.Fatal("Expected a save command")
	}
	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()

	select {
	case fn := <-posts:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("Snapshot was not posted to the engine goroutine")
	}

	msg := (<-result).(savedMsg)
	if msg.err != nil || msg.path != "/tmp/frame.png" {
		t.Errorf("Unexpected result: %+v", msg)
	}
	next, _ := m.Update(msg)
	if next.(Model).message != "saved /tmp/frame.png" {
		t.Errorf("Expected saved message, got %q", next.(Model).message)
	}
}
