package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// StreamingEncoder reads raw PCM bytes from a channel, buffers to a threshold,
// then batch-encodes to MP3 and writes to an io.Writer.
//
// The encoder runs in a goroutine and flushes what is buffered when the input
// channel is closed. Cancelling the context abandons the encode.
type StreamingEncoder struct {
	config EncoderConfig
	input  <-chan []byte
	output io.Writer

	encoder *mp3encoder.Encoder
	buffer  []byte

	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

// NewStreamingEncoder creates a streaming MP3 encoder for S16LE mono PCM.
func NewStreamingEncoder(
	config EncoderConfig,
	input <-chan []byte,
	output io.Writer,
) (*StreamingEncoder, error) {
	if input == nil {
		return nil, errors.New("input channel cannot be nil")
	}

	if output == nil {
		return nil, errors.New("output writer cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoder config: %w", err)
	}

	return &StreamingEncoder{ //nolint:exhaustruct // wg, errOnce, err initialized on Start()
		config: config,
		input:  input,
		output: output,
		buffer: make([]byte, 0, config.BufferThreshold),
	}, nil
}

// Start begins the encoding goroutine. Returns error if already started.
func (e *StreamingEncoder) Start(ctx context.Context) error {
	if e.encoder != nil {
		return errors.New("encoder already started")
	}

	// shine-mp3 mono output is broken, so encode as stereo
	e.encoder = mp3encoder.NewEncoder(e.config.SampleRate, 2)

	e.wg.Go(func() {
		for {
			select {
			case data, ok := <-e.input:
				if !ok {
					if err := e.Flush(); err != nil {
						e.setError(err)
					}

					return
				}

				e.buffer = append(e.buffer, data...)

				if len(e.buffer) >= e.config.BufferThreshold {
					if err := e.encodeBatch(); err != nil {
						e.setError(err)
						return
					}
				}

			case <-ctx.Done():
				e.setError(fmt.Errorf("encoder context cancelled: %w", ctx.Err()))
				return
			}
		}
	})

	return nil
}

// encodeBatch converts whole buffered samples to MP3 and writes them out.
// A trailing odd byte stays buffered for the next batch.
func (e *StreamingEncoder) encodeBatch() error {
	numSamples := len(e.buffer) / 2
	if numSamples == 0 {
		return nil
	}

	monoSamples := make([]int16, numSamples)
	if err := binary.Read(bytes.NewReader(e.buffer[:numSamples*2]), binary.LittleEndian, monoSamples); err != nil {
		return fmt.Errorf("failed to read PCM samples: %w", err)
	}

	stereoSamples := make([]int16, numSamples*2)
	for i, sample := range monoSamples {
		stereoSamples[i*2] = sample
		stereoSamples[i*2+1] = sample
	}

	slog.Debug("encoding MP3 batch",
		"monoSamples", numSamples,
		"stereoSamples", len(stereoSamples))

	if err := e.encoder.Write(e.output, stereoSamples); err != nil {
		return fmt.Errorf("failed to encode audio to MP3: %w", err)
	}

	e.buffer = append(e.buffer[:0], e.buffer[numSamples*2:]...)

	return nil
}

// Flush encodes any remaining buffered data. Safe to call multiple times.
func (e *StreamingEncoder) Flush() error {
	if err := e.encodeBatch(); err != nil {
		return fmt.Errorf("failed to flush MP3 encoder: %w", err)
	}

	return nil
}

// Wait blocks until encoding completes and returns any error that occurred.
func (e *StreamingEncoder) Wait() error {
	e.wg.Wait()

	return e.err
}

// setError records the first error that occurs (subsequent calls are no-ops).
func (e *StreamingEncoder) setError(err error) {
	e.errOnce.Do(func() {
		e.err = err
		slog.Debug("streaming encoder error", "error", err)
	})
}

// EncodeMP3 encodes a complete PCM buffer to MP3, feeding the streaming
// encoder in threshold-sized chunks.
func EncodeMP3(ctx context.Context, pcm []byte, f Format, w io.Writer) error {
	if f.BitsPerSample != 16 {
		return fmt.Errorf("%w: mp3 export needs 16-bit samples, got %d", ErrUnsupportedFormat, f.BitsPerSample)
	}

	config := EncoderConfigFor(f)
	chunks := (len(pcm) + config.BufferThreshold - 1) / config.BufferThreshold
	input := make(chan []byte, chunks)

	enc, err := NewStreamingEncoder(config, input, w)
	if err != nil {
		return err
	}

	for off := 0; off < len(pcm); off += config.BufferThreshold {
		input <- pcm[off:min(off+config.BufferThreshold, len(pcm))]
	}
	close(input)

	if err := enc.Start(ctx); err != nil {
		return err
	}

	return enc.Wait()
}
