package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alkime/breathewise/internal/audio"
	"github.com/alkime/breathewise/internal/config"
	"github.com/alkime/breathewise/internal/guide"
	"github.com/alkime/breathewise/internal/workdir"
)

// StoryCmd prints a microfiction story.
type StoryCmd struct {
	Mood string `flag:"" short:"m" default:"anxious" help:"How you feel"`
}

// Run executes the story command.
func (c *StoryCmd) Run() error {
	return withGuide(func(ctx context.Context, _ *config.Config, svc *guide.Service) error {
		story := svc.Story(ctx, c.Mood)
		fmt.Print(renderMarkdown("## A story for feeling " + c.Mood + "\n\n" + story))

		return nil
	})
}

// SuggestCmd prints a breathing suggestion.
type SuggestCmd struct {
	Mood string `flag:"" short:"m" default:"anxious" help:"How you feel"`
}

// Run executes the suggest command.
func (c *SuggestCmd) Run() error {
	return withGuide(func(ctx context.Context, _ *config.Config, svc *guide.Service) error {
		suggestion := svc.Suggestion(ctx, c.Mood)
		fmt.Print(renderMarkdown("## Try this\n\n" + suggestion))

		return nil
	})
}

// AudioCmd writes spoken guidance to a file.
type AudioCmd struct {
	Mood string `flag:"" short:"m" default:"anxious" help:"How you feel; picks the breathing pattern"`
	Out  string `flag:"" short:"o" type:"path" help:"Output file (.wav or .mp3); defaults to the work directory"`
	Play bool   `flag:"" help:"Play the guidance after saving it"`
}

// Run executes the audio command.
func (c *AudioCmd) Run() error {
	return withGuide(func(ctx context.Context, cfg *config.Config, svc *guide.Service) error {
		if !svc.AudioAvailable() {
			return guide.ErrAudioUnavailable
		}

		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		mood, _ := cat.Resolve(c.Mood, "")

		guidance, err := svc.Audio(ctx, mood.Name, mood.BreathingPattern())
		if err != nil {
			return err
		}

		path, err := audioOutputPath(c.Out, mood.Name, time.Now())
		if err != nil {
			return err
		}

		if err := writeGuidance(ctx, path, guidance); err != nil {
			return err
		}

		fmt.Printf("Saved %s of guidance to %s\n", guidance.Format.Duration(guidance.PCM).Round(time.Second), path)

		if c.Play {
			playGuidance(ctx, guidance)
		}

		return nil
	})
}

// audioOutputPath picks the output file. An explicit path must end in .wav
// or .mp3; the default is a timestamped WAV in the work directory.
func audioOutputPath(out, mood string, now time.Time) (string, error) {
	if out == "" {
		return workdir.AudioFile(mood, "wav", now)
	}

	switch strings.ToLower(filepath.Ext(out)) {
	case ".wav", ".mp3":
		return out, nil
	default:
		return "", fmt.Errorf("%w: output must be .wav or .mp3, got %q", audio.ErrUnsupportedFormat, out)
	}
}

func writeGuidance(ctx context.Context, path string, guidance guide.Guidance) error {
	//nolint:gosec // path chosen by the user or the work directory
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if err := audio.EncodeMP3(ctx, guidance.PCM, guidance.Format, f); err != nil {
			return fmt.Errorf("failed to encode mp3: %w", err)
		}
	} else {
		wav, err := audio.EncodeWAV(guidance.PCM, guidance.Format)
		if err != nil {
			return err
		}

		if _, err := f.Write(wav); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	return f.Close()
}

// withGuide runs fn with a guidance service that records to history.
func withGuide(fn func(ctx context.Context, cfg *config.Config, svc *guide.Service) error) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory(history)

	svc, err := newGuide(ctx, cfg, history)
	if err != nil {
		return err
	}

	return fn(ctx, cfg, svc)
}
