// Package guide produces the AI-generated companions of a breathing session:
// a mood-based microfiction story, a breathing-pattern suggestion and a
// spoken guidance track.
package guide

import (
	"context"
	"errors"

	"github.com/alkime/breathewise/internal/audio"
	"github.com/alkime/breathewise/internal/breath"
)

var (
	// ErrEmptyMood is returned when a request carries no mood.
	ErrEmptyMood = errors.New("mood is required")
	// ErrNoAudio is returned when speech synthesis produced no samples.
	ErrNoAudio = errors.New("audio generation failed: no audio returned")
	// ErrAudioUnavailable is returned when no speech provider is configured.
	ErrAudioUnavailable = errors.New("audio guidance is not available")
	// ErrEmptyResponse is returned when a provider answered without content.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// Fallback texts shown when generation fails.
const (
	StoryFallback      = "Could not generate a story. Please try again."
	SuggestionFallback = "Could not suggest a pattern. Please try again."
)

// ScriptRequest carries what the spoken script needs to know.
type ScriptRequest struct {
	Mood         string
	PatternTitle string
	Instructions string
}

// ScriptRequestFor builds the script request for mood and pattern.
func ScriptRequestFor(mood string, p breath.Pattern) ScriptRequest {
	return ScriptRequest{Mood: mood, PatternTitle: p.Title(), Instructions: p.Instructions()}
}

// Writer generates text.
type Writer interface {
	Microfiction(ctx context.Context, mood string) (string, error)
	SuggestPattern(ctx context.Context, mood string) (string, error)
	MeditationScript(ctx context.Context, req ScriptRequest) (string, error)
}

// Speaker turns a script into raw S16LE mono PCM at 24 kHz.
type Speaker interface {
	Synthesize(ctx context.Context, script string) ([]byte, error)
}

// Guidance is a spoken guidance track ready to play.
type Guidance struct {
	Script string
	PCM    []byte
	Format audio.Format
	// URI is the WAV track as a data:audio/wav;base64 URI.
	URI string
}
