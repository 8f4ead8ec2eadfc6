package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/alkime/breathewise/pkg/collections"
	"github.com/gen2brain/malgo"
)

// DeviceConfig is the malgo view of a PCM format.
type DeviceConfig struct {
	Format           malgo.FormatType
	PlaybackChannels int
	SampleRate       int
}

// DeviceConfigFor maps a PCM format to a playback device config.
func DeviceConfigFor(f Format) (*DeviceConfig, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var mf malgo.FormatType

	switch f.BitsPerSample {
	case 8:
		mf = malgo.FormatU8
	case 16:
		mf = malgo.FormatS16
	case 24:
		mf = malgo.FormatS24
	case 32:
		mf = malgo.FormatS32
	}

	return &DeviceConfig{
		Format:           mf,
		PlaybackChannels: f.Channels,
		SampleRate:       f.SampleRate,
	}, nil
}

// Player plays PCM buffers on the default output device.
type Player interface {
	// EnumerateDevices lists available playback devices.
	EnumerateDevices(ctx context.Context) ([]Info, error)

	// Play blocks until pcm has been handed to the device or ctx ends.
	Play(ctx context.Context, pcm []byte) error
}

type player struct {
	conf *DeviceConfig
}

// NewPlayer returns a Player for buffers laid out as conf describes.
func NewPlayer(conf *DeviceConfig) Player {
	return &player{conf: conf}
}

func (p *player) EnumerateDevices(ctx context.Context) ([]Info, error) {
	devCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer uninitializeContext(devCtx)

	playbackDevices, err := devCtx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to get playback devices: %w", err)
	}

	return collections.Apply(playbackDevices, malgoDeviceInfoToDeviceInfo), nil
}

func (p *player) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}

	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer uninitializeContext(mgCtx)

	devCnf := malgo.DefaultDeviceConfig(malgo.Playback)
	devCnf.Playback.Format = p.conf.Format
	devCnf.Playback.Channels = uint32(p.conf.PlaybackChannels) //nolint:gosec // from a validated Format
	devCnf.SampleRate = uint32(p.conf.SampleRate)              //nolint:gosec // from a validated Format

	// the data callback runs on the audio thread and is the only reader
	reader := bytes.NewReader(pcm)
	drained := make(chan struct{})
	var once sync.Once

	callBacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			n, _ := io.ReadFull(reader, out)
			if n < len(out) {
				clear(out[n:])
				once.Do(func() { close(drained) })
			}
		},
	}

	mgDevice, err := malgo.InitDevice(mgCtx.Context, devCnf, callBacks)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo device: %w", err)
	}
	defer mgDevice.Uninit()

	if err := mgDevice.Start(); err != nil {
		return fmt.Errorf("failed to start malgo device: %w", err)
	}

	select {
	case <-drained:
	case <-ctx.Done():
	}

	if err := mgDevice.Stop(); err != nil {
		return fmt.Errorf("failed to stop malgo device: %w", err)
	}

	return ctx.Err()
}

type Info struct {
	Name        string
	IsDefault   bool
	FormatCount int
	Formats     []string
}

func malgoDeviceInfoToDeviceInfo(mdi malgo.DeviceInfo) Info {
	formats := make([]string, len(mdi.Formats))
	for i, mf := range mdi.Formats {
		formats[i] = fmt.Sprintf("(SampleSizeBytes: %d, Channels: %d, SampleRate: %d)",
			malgo.SampleSizeInBytes(mf.Format),
			mf.Channels, mf.SampleRate)
	}
	return Info{
		Name:        mdi.Name(),
		IsDefault:   mdi.IsDefault != 0,
		FormatCount: int(mdi.FormatCount),
		Formats:     formats,
	}
}

func uninitializeContext(deviceCtx *malgo.AllocatedContext) {
	if deviceCtx == nil {
		return
	}

	if err := deviceCtx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
	}
	deviceCtx.Free()
}
