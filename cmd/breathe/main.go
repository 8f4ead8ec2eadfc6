package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/alkime/breathewise/internal/logger"
)

// CLI defines the breathe command structure.
type CLI struct {
	Globals `embed:""`

	// Default TUI command (runs when no subcommand given)
	Session SessionCmd `cmd:"" default:"withargs" help:"Run a guided breathing session in the terminal"`

	// Subcommands
	Story    StoryCmd    `cmd:"" help:"Write a short calming story for a mood"`
	Suggest  SuggestCmd  `cmd:"" help:"Suggest a breathing pattern for a mood"`
	Audio    AudioCmd    `cmd:"" help:"Generate spoken guidance and save it as WAV or MP3"`
	Patterns PatternsCmd `cmd:"" help:"List breathing patterns"`
	Devices  DevicesCmd  `cmd:"" help:"List available audio playback devices"`
	History  HistoryCmd  `cmd:"" help:"Show past sessions and generated content"`
	Serve    ServeCmd    `cmd:"" help:"Start the web app"`
	Config   ConfigCmd   `cmd:"" help:"Manage configuration"`
}

// Globals are flags shared by every command.
type Globals struct {
	LogLevel string `name:"log-level" env:"LOG_LEVEL" default:"info" help:"Log level (debug, info, warn, error)"`
	LogFile  string `name:"log-file" type:"path" help:"Write logs to this file instead of stderr"`
}

// quietForTUI stops logs from drawing over the terminal UI unless they
// already go to a file.
func (g *Globals) quietForTUI() {
	if g.LogFile == "" {
		logger.SetupCLILogger(io.Discard, g.LogLevel)
	}
}

func main() {
	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("breathe"),
		kong.Description("Guided breathing with calming stories and spoken guidance."),
		kong.UsageOnError(),
	)

	// Set up text-based logger for CLI output
	var logOut io.Writer = os.Stderr
	if cli.LogFile != "" {
		//nolint:gosec // path chosen by the user
		f, err := os.OpenFile(cli.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			ctx.FatalIfErrorf(fmt.Errorf("failed to open log file: %w", err))
		}
		defer f.Close()
		logOut = f
	}
	logger.SetupCLILogger(logOut, cli.LogLevel)

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
