package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnsupportedFormat is returned for PCM layouts the WAV writer cannot describe.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ErrInvalidWAV is returned when a byte stream is not a PCM WAV file.
var ErrInvalidWAV = errors.New("invalid wav data")

const (
	wavHeaderSize = 44
	wavPCM        = 1

	dataURIPrefix = "data:audio/wav;base64,"
)

// Format describes interleaved little-endian PCM samples.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// DefaultFormat is what the speech services return: mono, 24 kHz, 16-bit.
var DefaultFormat = Format{Channels: 1, SampleRate: 24000, BitsPerSample: 16}

// BlockAlign is the size in bytes of one frame.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// ByteRate is the number of PCM bytes per second.
func (f Format) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

// Duration returns how long pcm plays for in format f.
func (f Format) Duration(pcm []byte) time.Duration {
	if f.ByteRate() == 0 {
		return 0
	}

	return time.Duration(len(pcm)) * time.Second / time.Duration(f.ByteRate())
}

// Validate reports whether f can be written as a PCM WAV header.
func (f Format) Validate() error {
	if f.Channels <= 0 || f.SampleRate <= 0 {
		return fmt.Errorf("%w: channels and sample rate must be positive", ErrUnsupportedFormat)
	}

	switch f.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, f.BitsPerSample)
	}

	return nil
}

// wavHeader is the canonical 44-byte RIFF/WAVE header with a single fmt
// chunk followed by the data chunk header.
type wavHeader struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WAVE          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

// EncodeWAV wraps raw PCM in a WAV container. The payload is copied as is,
// so len(pcm) must be a whole number of frames.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if len(pcm)%f.BlockAlign() != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte frames",
			ErrUnsupportedFormat, len(pcm), f.BlockAlign())
	}

	h := wavHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)), //nolint:gosec // bounded by the speech response size
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   wavPCM,
		Channels:      uint16(f.Channels),      //nolint:gosec // validated above
		SampleRate:    uint32(f.SampleRate),    //nolint:gosec // validated above
		ByteRate:      uint32(f.ByteRate()),    //nolint:gosec // validated above
		BlockAlign:    uint16(f.BlockAlign()),  //nolint:gosec // validated above
		BitsPerSample: uint16(f.BitsPerSample), //nolint:gosec // validated above
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(len(pcm)), //nolint:gosec // bounded by the speech response size
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("failed to write wav header: %w", err)
	}

	buf.Write(pcm)

	return buf.Bytes(), nil
}

// ParseWAV reads the format and PCM payload back out of a WAV file. Chunks
// other than fmt and data are skipped.
func ParseWAV(wav []byte) (Format, []byte, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return Format{}, nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidWAV)
	}

	var (
		f      Format
		gotFmt bool
	)

	rest := wav[12:]
	for len(rest) >= 8 {
		id := string(rest[0:4])
		size := int(binary.LittleEndian.Uint32(rest[4:8]))
		rest = rest[8:]

		if size > len(rest) {
			return Format{}, nil, fmt.Errorf("%w: %q chunk overruns file", ErrInvalidWAV, id)
		}

		body := rest[:size]

		switch id {
		case "fmt ":
			if size < 16 {
				return Format{}, nil, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}

			if code := binary.LittleEndian.Uint16(body[0:2]); code != wavPCM {
				return Format{}, nil, fmt.Errorf("%w: audio format %d is not PCM", ErrUnsupportedFormat, code)
			}

			f = Format{
				Channels:      int(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate:    int(binary.LittleEndian.Uint32(body[4:8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(body[14:16])),
			}
			gotFmt = true

		case "data":
			if !gotFmt {
				return Format{}, nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidWAV)
			}

			return f, body, nil
		}

		// chunks are word aligned
		if size%2 == 1 && size < len(rest) {
			size++
		}
		rest = rest[size:]
	}

	return Format{}, nil, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
}

// DataURI encodes a WAV file as a data:audio/wav;base64 URI.
func DataURI(wav []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(wav)
}

// DecodeDataURI returns the WAV bytes held by a URI produced by DataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	payload, ok := strings.CutPrefix(uri, dataURIPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: not a wav data uri", ErrInvalidWAV)
	}

	wav, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data uri payload: %w", err)
	}

	return wav, nil
}

// PCMDataURI packages raw PCM as a playable WAV data URI.
func PCMDataURI(pcm []byte, f Format) (string, error) {
	wav, err := EncodeWAV(pcm, f)
	if err != nil {
		return "", err
	}

	return DataURI(wav), nil
}
