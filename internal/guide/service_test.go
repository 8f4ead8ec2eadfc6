package guide

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/breathewise/internal/audio"
	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/store"
)

type fakeWriter struct {
	story      string
	suggestion string
	script     string
	err        error

	mu       sync.Mutex
	moods    []string
	requests []ScriptRequest
}

func (f *fakeWriter) Microfiction(_ context.Context, mood string) (string, error) {
	f.mu.Lock()
	f.moods = append(f.moods, mood)
	f.mu.Unlock()
	return f.story, f.err
}

func (f *fakeWriter) SuggestPattern(_ context.Context, mood string) (string, error) {
	f.mu.Lock()
	f.moods = append(f.moods, mood)
	f.mu.Unlock()
	return f.suggestion, f.err
}

func (f *fakeWriter) MeditationScript(_ context.Context, req ScriptRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.script, f.err
}

type fakeSpeaker struct {
	pcm     []byte
	err     error
	scripts []string
}

func (f *fakeSpeaker) Synthesize(_ context.Context, script string) ([]byte, error) {
	f.scripts = append(f.scripts, script)
	return f.pcm, f.err
}

// blockingWriter waits for the context to end.
type blockingWriter struct{}

func (blockingWriter) Microfiction(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingWriter) SuggestPattern(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingWriter) MeditationScript(ctx context.Context, _ ScriptRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type failingRecorder struct{}

func (failingRecorder) SaveGeneration(context.Context, store.GenerationRecord) error {
	return errors.New("disk full")
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestService_Story(t *testing.T) {
	w := &fakeWriter{story: "The tide came in slowly."}
	hist := store.NewInMemoryStore()
	svc := NewService(w, WithHistory(hist), WithClock(func() time.Time { return fixedNow }))

	assert.Equal(t, "The tide came in slowly.", svc.Story(context.Background(), " anxious "))
	assert.Equal(t, []string{"anxious"}, w.moods)

	recs, err := hist.ListGenerations(context.Background(), store.GenerationStory, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "anxious", recs[0].Mood)
	assert.Equal(t, "The tide came in slowly.", recs[0].Text)
	assert.Equal(t, fixedNow, recs[0].CreatedAt)
	assert.NotEmpty(t, recs[0].ID)
}

func TestService_StoryFallback(t *testing.T) {
	tests := []struct {
		name string
		w    *fakeWriter
		mood string
	}{
		{name: "provider error", w: &fakeWriter{err: errors.New("quota exceeded")}, mood: "tired"},
		{name: "empty mood", w: &fakeWriter{story: "unused"}, mood: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist := store.NewInMemoryStore()
			svc := NewService(tt.w, WithHistory(hist))

			assert.Equal(t, StoryFallback, svc.Story(context.Background(), tt.mood))

			recs, err := hist.ListGenerations(context.Background(), "", 0)
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestService_Suggestion(t *testing.T) {
	w := &fakeWriter{suggestion: "Box breathing. Inhale: 4 seconds, Hold: 4 seconds"}
	svc := NewService(w)

	assert.Equal(t, w.suggestion, svc.Suggestion(context.Background(), "reflective"))

	w.err = errors.New("boom")
	assert.Equal(t, SuggestionFallback, svc.Suggestion(context.Background(), "reflective"))
}

func TestService_TimeoutFallsBack(t *testing.T) {
	svc := NewService(blockingWriter{}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	assert.Equal(t, StoryFallback, svc.Story(context.Background(), "anxious"))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestService_RecorderFailureDoesNotFail(t *testing.T) {
	svc := NewService(&fakeWriter{story: "ok"}, WithHistory(failingRecorder{}))
	assert.Equal(t, "ok", svc.Story(context.Background(), "tired"))
}

func TestService_Audio(t *testing.T) {
	box := breath.MustLookup(breath.PatternBox)

	w := &fakeWriter{script: "Breathe in... hold... breathe out... hold."}
	// odd length, the trailing byte is dropped
	sp := &fakeSpeaker{pcm: make([]byte, 48001)}
	hist := store.NewInMemoryStore()
	svc := NewService(w, WithSpeaker(sp), WithHistory(hist))

	require.True(t, svc.AudioAvailable())

	g, err := svc.Audio(context.Background(), "anxious", box)
	require.NoError(t, err)

	assert.Equal(t, w.script, g.Script)
	assert.Len(t, g.PCM, 48000)
	assert.Equal(t, audio.DefaultFormat, g.Format)
	assert.Equal(t, time.Second, g.Format.Duration(g.PCM))

	wav, err := audio.DecodeDataURI(g.URI)
	require.NoError(t, err)
	f, pcm, err := audio.ParseWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, audio.DefaultFormat, f)
	assert.Len(t, pcm, 48000)

	require.Len(t, w.requests, 1)
	assert.Equal(t, ScriptRequestFor("anxious", box), w.requests[0])
	assert.Equal(t, []string{w.script}, sp.scripts)

	recs, err := hist.ListGenerations(context.Background(), store.GenerationAudio, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, w.script, recs[0].Text)
}

func TestService_AudioErrors(t *testing.T) {
	p := breath.MustLookup(breath.PatternDefault)

	tests := []struct {
		name    string
		svc     *Service
		mood    string
		wantErr error
	}{
		{
			name:    "empty mood",
			svc:     NewService(&fakeWriter{script: "s"}, WithSpeaker(&fakeSpeaker{pcm: []byte{0, 0}})),
			mood:    "",
			wantErr: ErrEmptyMood,
		},
		{
			name:    "no speaker",
			svc:     NewService(&fakeWriter{script: "s"}),
			mood:    "tired",
			wantErr: ErrAudioUnavailable,
		},
		{
			name:    "no audio returned",
			svc:     NewService(&fakeWriter{script: "s"}, WithSpeaker(&fakeSpeaker{})),
			mood:    "tired",
			wantErr: ErrNoAudio,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Audio(context.Background(), tt.mood, p)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_AudioProviderErrors(t *testing.T) {
	p := breath.MustLookup(breath.PatternTriangular)

	scriptErr := errors.New("script failed")
	svc := NewService(&fakeWriter{err: scriptErr}, WithSpeaker(&fakeSpeaker{pcm: []byte{0, 0}}))
	_, err := svc.Audio(context.Background(), "energized", p)
	require.ErrorIs(t, err, scriptErr)

	speakErr := errors.New("tts failed")
	svc = NewService(&fakeWriter{script: "s"}, WithSpeaker(&fakeSpeaker{err: speakErr}))
	_, err = svc.Audio(context.Background(), "energized", p)
	require.ErrorIs(t, err, speakErr)
}

func TestScriptRequestFor(t *testing.T) {
	p := breath.MustLookup(breath.PatternBox)

	req := ScriptRequestFor("anxious", p)
	assert.Equal(t, "anxious", req.Mood)
	assert.Equal(t, p.Title(), req.PatternTitle)
	assert.Equal(t, p.Instructions(), req.Instructions)

	prompt := ScriptPrompt(req)
	assert.Contains(t, prompt, "anxious")
	assert.Contains(t, prompt, p.Instructions())
}
