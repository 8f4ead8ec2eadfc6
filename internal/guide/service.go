package guide

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alkime/breathewise/internal/audio"
	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/store"
	"github.com/google/uuid"
)

// Recorder keeps a history of successful generations.
type Recorder interface {
	SaveGeneration(ctx context.Context, rec store.GenerationRecord) error
}

// Service applies the fallback policy on top of a Writer and Speaker. Text
// failures never reach the caller: they are logged and replaced with the
// fallback text. Audio failures are returned so the caller can disable
// guidance for that session. Nothing is retried.
type Service struct {
	writer  Writer
	speaker Speaker
	history Recorder
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSpeaker enables spoken guidance.
func WithSpeaker(s Speaker) ServiceOption {
	return func(svc *Service) { svc.speaker = s }
}

// WithHistory records every successful generation.
func WithHistory(r Recorder) ServiceOption {
	return func(svc *Service) { svc.history = r }
}

// WithTimeout bounds every remote call.
func WithTimeout(d time.Duration) ServiceOption {
	return func(svc *Service) { svc.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(svc *Service) { svc.logger = l }
}

// WithClock sets the time source used for history timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(svc *Service) { svc.now = now }
}

// NewService wraps w.
func NewService(w Writer, opts ...ServiceOption) *Service {
	svc := &Service{
		writer: w,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// AudioAvailable reports whether spoken guidance can be generated at all.
func (s *Service) AudioAvailable() bool {
	return s.speaker != nil
}

// Story returns a microfiction story for mood, or StoryFallback.
func (s *Service) Story(ctx context.Context, mood string) string {
	story, err := s.text(ctx, store.GenerationStory, mood, s.writer.Microfiction)
	if err != nil {
		s.logger.Error("failed to generate story", "mood", mood, "error", err)
		return StoryFallback
	}

	return story
}

// Suggestion returns a breathing suggestion for mood, or SuggestionFallback.
func (s *Service) Suggestion(ctx context.Context, mood string) string {
	suggestion, err := s.text(ctx, store.GenerationSuggestion, mood, s.writer.SuggestPattern)
	if err != nil {
		s.logger.Error("failed to suggest breathing pattern", "mood", mood, "error", err)
		return SuggestionFallback
	}

	return suggestion
}

// Audio writes a script for mood and pattern, speaks it and packages the
// speech as a WAV data URI. Any failure is final for this request.
func (s *Service) Audio(ctx context.Context, mood string, p breath.Pattern) (Guidance, error) {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return Guidance{}, ErrEmptyMood
	}

	if s.speaker == nil {
		return Guidance{}, ErrAudioUnavailable
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	script, err := s.writer.MeditationScript(ctx, ScriptRequestFor(mood, p))
	if err != nil {
		return Guidance{}, fmt.Errorf("failed to write guidance script: %w", err)
	}

	pcm, err := s.speaker.Synthesize(ctx, script)
	if err != nil {
		return Guidance{}, fmt.Errorf("failed to speak guidance script: %w", err)
	}

	if len(pcm) == 0 {
		return Guidance{}, ErrNoAudio
	}

	// a stray trailing byte cannot form a sample
	pcm = pcm[:len(pcm)-len(pcm)%audio.DefaultFormat.BlockAlign()]

	uri, err := audio.PCMDataURI(pcm, audio.DefaultFormat)
	if err != nil {
		return Guidance{}, fmt.Errorf("failed to package guidance audio: %w", err)
	}

	s.logger.Debug("generated guidance audio",
		"mood", mood, "pattern", p.Name, "seconds", audio.DefaultFormat.Duration(pcm).Seconds())
	s.record(ctx, store.GenerationAudio, mood, script)

	return Guidance{
		Script: script,
		PCM:    pcm,
		Format: audio.DefaultFormat,
		URI:    uri,
	}, nil
}

func (s *Service) text(
	ctx context.Context,
	kind store.GenerationKind,
	mood string,
	generate func(context.Context, string) (string, error),
) (string, error) {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return "", ErrEmptyMood
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	text, err := generate(ctx, mood)
	if err != nil {
		return "", err
	}

	s.record(ctx, kind, mood, text)

	return text, nil
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) record(ctx context.Context, kind store.GenerationKind, mood, text string) {
	if s.history == nil {
		return
	}

	rec := store.GenerationRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		Mood:      mood,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}

	// history is best effort and must outlive a request that just timed out
	if err := s.history.SaveGeneration(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("failed to record generation", "kind", kind, "error", err)
	}
}
