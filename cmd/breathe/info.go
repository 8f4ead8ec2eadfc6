package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alkime/breathewise/internal/audio"
	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/store"
)

// PatternsCmd lists the breathing patterns.
type PatternsCmd struct {
	Timeline bool          `flag:"" help:"Show when each phase starts"`
	Loop     bool          `flag:"" help:"Simulate with looping enabled"`
	Horizon  time.Duration `flag:"" default:"30s" help:"How far ahead to simulate"`
}

// Run executes the patterns command.
func (c *PatternsCmd) Run() error {
	fmt.Print(renderMarkdown(patternsMarkdown(breath.Patterns())))

	if !c.Timeline {
		return nil
	}

	for _, p := range breath.Patterns() {
		ticks, err := breath.Timeline(p, c.Loop, c.Horizon)
		if err != nil {
			return fmt.Errorf("failed to simulate %s: %w", p.Name, err)
		}

		fmt.Print(renderMarkdown(timelineMarkdown(p, ticks)))
	}

	return nil
}

func patternsMarkdown(patterns []breath.Pattern) string {
	var sb strings.Builder

	sb.WriteString("## Breathing patterns\n\n")
	sb.WriteString("| Name | Title | Phases | Cycle |\n")
	sb.WriteString("|------|-------|--------|-------|\n")

	for _, p := range patterns {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", p.Name, p.Title(), p.Instructions(), p.CycleLength())
	}

	return sb.String()
}

func timelineMarkdown(p breath.Pattern, ticks []breath.Tick) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", p.Title())
	sb.WriteString("| At | Cause | Phase | Generation | Finished |\n")
	sb.WriteString("|----|-------|-------|------------|----------|\n")

	for _, t := range ticks {
		phase := string(t.State.Phase.Name)
		if t.State.Finished {
			phase = "-"
		}

		fmt.Fprintf(&sb, "| %s | %s | %s | %d | %t |\n",
			t.At, t.Cause, phase, t.State.Generation, t.State.Finished)
	}

	return sb.String()
}

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	conf, err := audio.DeviceConfigFor(audio.DefaultFormat)
	if err != nil {
		return err
	}

	devices, err := audio.NewPlayer(conf).EnumerateDevices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formatCount", dev.FormatCount,
			"formats", dev.Formats,
		)
	}

	return nil
}

// HistoryCmd shows recorded sessions and generations.
type HistoryCmd struct {
	Kind  string `flag:"" help:"Only show generations of this kind (story, suggestion or audio)"`
	Limit int    `flag:"" default:"20" help:"Maximum rows per table"`
}

// Run executes the history command.
func (c *HistoryCmd) Run() error {
	ctx := context.Background()

	kind, err := store.ParseGenerationKind(c.Kind)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory(history)

	sessions, err := history.ListSessions(ctx, c.Limit)
	if err != nil {
		return err
	}

	generations, err := history.ListGenerations(ctx, kind, c.Limit)
	if err != nil {
		return err
	}

	fmt.Print(renderMarkdown(historyMarkdown(sessions, generations)))

	return nil
}

func historyMarkdown(sessions []store.SessionRecord, generations []store.GenerationRecord) string {
	var sb strings.Builder

	sb.WriteString("## Sessions\n\n")
	if len(sessions) == 0 {
		sb.WriteString("No sessions yet.\n\n")
	} else {
		sb.WriteString("| Started | Mood | Pattern | Length | Cycles | Loop |\n")
		sb.WriteString("|---------|------|---------|--------|--------|------|\n")

		for _, s := range sessions {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %d | %t |\n",
				s.StartedAt.Local().Format(time.DateTime), s.Mood, s.Pattern,
				s.EndedAt.Sub(s.StartedAt).Round(time.Second), s.Cycles, s.Looping)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Generated\n\n")
	if len(generations) == 0 {
		sb.WriteString("Nothing generated yet.\n")
		return sb.String()
	}

	sb.WriteString("| Created | Kind | Mood | Text |\n")
	sb.WriteString("|---------|------|------|------|\n")

	for _, g := range generations {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			g.CreatedAt.Local().Format(time.DateTime), g.Kind, g.Mood, excerpt(g.Text, 60))
	}

	return sb.String()
}

// excerpt flattens text onto one line for a table cell, cutting it at n runes.
func excerpt(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.ReplaceAll(text, "|", "/")

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[:n]) + "…"
}
