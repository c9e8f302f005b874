package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/config"
)

// BackendType represents the type of capture backend
type BackendType string

const (
	BackendTypeMalgo BackendType = "malgo"
	BackendTypeTone  BackendType = "tone"
	BackendTypeAuto  BackendType = "auto"
)

// Backend defines the interface for capture backend implementations
type Backend interface {
	// Open the capture device described by cfg
	Open(cfg *config.Config) (Device, error)

	// List available capture sources
	ListSources() ([]string, error)

	// Get the backend type
	GetType() BackendType
}

type MalgoBackend struct{}

func (MalgoBackend) Open(cfg *config.Config) (Device, error) {
	return NewMalgoDevice(formatOf(cfg), chunkOf(cfg), cfg.Audio.Device)
}

func (MalgoBackend) ListSources() ([]string, error) {
	return ListMalgoSources()
}

func (MalgoBackend) GetType() BackendType { return BackendTypeMalgo }

type ToneBackend struct{}

func (ToneBackend) Open(cfg *config.Config) (Device, error) {
	return NewToneDevice(formatOf(cfg), chunkOf(cfg), cfg.Audio.ToneFrequency), nil
}

func (ToneBackend) ListSources() ([]string, error) {
	return []string{"synthetic tone"}, nil
}

func (ToneBackend) GetType() BackendType { return BackendTypeTone }

// NewBackend returns the backend selected by configuration.
func NewBackend(cfg *config.Config) (Backend, error) {
	switch determineBackend(cfg) {
	case BackendTypeMalgo:
		return MalgoBackend{}, nil
	case BackendTypeTone:
		return ToneBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown capture backend: %s", cfg.Audio.Backend)
	}
}

// Open opens the capture device selected by configuration.
func Open(cfg *config.Config) (Device, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	device, err := backend.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", backend.GetType(), err)
	}
	return device, nil
}

// determineBackend determines which backend to use based on configuration
func determineBackend(cfg *config.Config) BackendType {
	switch strings.ToLower(cfg.Audio.Backend) {
	case "tone":
		return BackendTypeTone
	case "malgo", "auto", "":
		return BackendTypeMalgo
	}
	return BackendType(cfg.Audio.Backend)
}

// GetAvailableBackends returns list of available backends
func GetAvailableBackends() []BackendType {
	return []BackendType{BackendTypeMalgo, BackendTypeTone}
}

func formatOf(cfg *config.Config) Format {
	return Format{SampleRate: cfg.Audio.SampleRate, Channels: cfg.Audio.Channels}
}

func chunkOf(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Audio.ChunkMs) * time.Millisecond
}
