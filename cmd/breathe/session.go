package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alkime/breathewise/internal/audio"
	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/guide"
	"github.com/alkime/breathewise/internal/store"
	"github.com/alkime/breathewise/internal/tui"
	"github.com/alkime/breathewise/internal/tui/workflow"
)

// SessionCmd is the default command that runs the TUI.
type SessionCmd struct {
	Mood       string `flag:"" short:"m" default:"anxious" help:"How you feel; picks the breathing pattern"`
	Loop       bool   `flag:"" help:"Start with looping enabled"`
	NoGuidance bool   `flag:"" name:"no-guidance" help:"Skip generating spoken guidance"`
	Play       bool   `flag:"" default:"true" negatable:"" help:"Play spoken guidance through the default output device"`
}

// Run executes the session command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *SessionCmd) Run(g *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	mood, _ := cat.Resolve(c.Mood, "")
	if mood.Name != c.Mood {
		slog.Warn("unknown mood, using default", "mood", c.Mood, "default", mood.Name)
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

	session, err := breath.NewSession(mood.BreathingPattern(), c.Loop, breath.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	events := make(chan breath.Event, 64)
	if err := session.Subscribe(events); err != nil {
		return fmt.Errorf("failed to subscribe to session: %w", err)
	}

	var (
		wg      sync.WaitGroup
		summary breath.Summary
	)

	start := func(b *workflow.Briefing) {
		wg.Go(func() {
			s, err := session.Run(ctx)
			if err != nil {
				slog.Error("session stopped with error", "error", err)
			}
			summary = s
		})

		if c.Play && b.Guidance != nil {
			guidance := *b.Guidance
			wg.Go(func() { playGuidance(ctx, guidance) })
		}
	}

	g.quietForTUI()

	err = tui.Run(ctx, tui.Config{
		Briefing: &workflow.Briefing{Mood: mood, Pattern: session.Pattern()},
		Preparer: svc,
		Controls: workflow.SessionControls{
			Events:   events,
			Looping:  session,
			Progress: session.Progress(),
			Start:    start,
			Restart:  session.Restart,
		},
		Audio:  !c.NoGuidance && svc.AudioAvailable(),
		Cancel: cancel,
	})

	cancel()
	wg.Wait()

	if err != nil {
		return err
	}

	if summary.ID == "" {
		fmt.Println("\nsession cancelled before it started. bye!")
		return nil
	}

	saveSession(history, mood.Name, summary)

	fmt.Printf("\n%s finished after %s (%d cycles). bye!\n",
		session.Pattern().Title(), summary.EndedAt.Sub(summary.StartedAt).Round(time.Second), summary.Cycles)

	return nil
}

func playGuidance(ctx context.Context, guidance guide.Guidance) {
	conf, err := audio.DeviceConfigFor(guidance.Format)
	if err != nil {
		slog.Error("cannot play guidance", "error", err)
		return
	}

	if err := audio.NewPlayer(conf).Play(ctx, guidance.PCM); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("guidance playback failed", "error", err)
	}
}

func saveSession(history store.Store, mood string, summary breath.Summary) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := store.SessionRecord{
		ID:        summary.ID,
		Mood:      mood,
		Pattern:   string(summary.Pattern),
		Looping:   summary.Looping,
		StartedAt: summary.StartedAt.UTC(),
		EndedAt:   summary.EndedAt.UTC(),
		Cycles:    int64(summary.Cycles), //nolint:gosec // a handful of restarts
	}

	if err := history.SaveSession(ctx, rec); err != nil {
		slog.Error("failed to save session", "session", summary.ID, "error", err)
	}
}
