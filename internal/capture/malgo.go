package capture

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gen2brain/malgo"
)

// MalgoDevice captures from a microphone through miniaudio.
type MalgoDevice struct {
	baseDevice

	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

// NewMalgoDevice opens the capture device whose name contains deviceName, or
// the system default when deviceName is empty. The device starts suspended.
func NewMalgoDevice(format Format, chunk time.Duration, deviceName string) (*MalgoDevice, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if deviceName != "" {
		infos, err := ctx.Devices(malgo.Capture)
		if err != nil {
			freeContext(ctx)
			return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
		}
		found := false
		for _, info := range infos {
			if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(deviceName)) {
				deviceConfig.Capture.DeviceID = info.ID.Pointer()
				slog.Info("Using capture device", "name", info.Name())
				found = true
				break
			}
		}
		if !found {
			freeContext(ctx)
			return nil, fmt.Errorf("capture device not found: %s", deviceName)
		}
	}

	d := &MalgoDevice{
		baseDevice: newBaseDevice(format, chunk),
		ctx:        ctx,
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			d.deliver(input)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		freeContext(ctx)
		return nil, fmt.Errorf("failed to open capture device: %w", err)
	}
	d.device = device

	return d, nil
}

func (d *MalgoDevice) Resume() error {
	switch d.State() {
	case DeviceRunning:
		return nil
	case DeviceClosed:
		return ErrDeviceClosed
	}
	if err := d.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	d.setState(DeviceRunning)
	slog.Debug("Capture device resumed", "sample_rate", d.format.SampleRate, "channels", d.format.Channels)
	return nil
}

func (d *MalgoDevice) NewSession(dispatch Dispatcher) (Session, error) {
	return d.newSession(dispatch)
}

func (d *MalgoDevice) Close() error {
	if d.State() == DeviceClosed {
		return nil
	}
	d.setState(DeviceClosed)
	d.device.Uninit()
	freeContext(d.ctx)
	slog.Debug("Capture device closed")
	return nil
}

func freeContext(ctx *malgo.AllocatedContext) {
	if err := ctx.Uninit(); err != nil {
		slog.Debug("Failed to uninit audio context", "error", err)
	}
	ctx.Free()
}

// ListMalgoSources returns the names of the available capture devices.
func ListMalgoSources() ([]string, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	defer freeContext(ctx)

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
	}

	sources := make([]string, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if info.IsDefault != 0 {
			name += " (default)"
		}
		sources = append(sources, name)
	}
	return sources, nil
}
