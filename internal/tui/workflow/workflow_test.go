package workflow

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/guide"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// outputChecker provides helpers for testing teatest output.
type outputChecker struct {
	intervl, timeout time.Duration
}

func defaultChecker() outputChecker {
	return outputChecker{
		intervl: 50 * time.Millisecond,
		timeout: 3 * time.Second,
	}
}

func (o outputChecker) check(t *testing.T, tm *teatest.TestModel, checkFunc func(buf []byte) bool) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), checkFunc,
		teatest.WithCheckInterval(o.intervl),
		teatest.WithDuration(o.timeout))
}

// checkAll waits until every substring has appeared in the output read
// during this call.
func (o outputChecker) checkAll(t *testing.T, tm *teatest.TestModel, substrs ...string) {
	t.Helper()

	o.check(t, tm, func(buf []byte) bool {
		for _, s := range substrs {
			if !bytes.Contains(buf, []byte(s)) {
				return false
			}
		}

		return true
	})
}

// mockPreparer implements Preparer for testing.
type mockPreparer struct {
	story      string
	suggestion string
	guidance   guide.Guidance
	audioErr   error

	mu         sync.Mutex
	audioCalls int
	moods      []string
}

func (m *mockPreparer) Story(_ context.Context, mood string) string {
	m.record(mood)
	return m.story
}

func (m *mockPreparer) Suggestion(_ context.Context, mood string) string {
	m.record(mood)
	return m.suggestion
}

func (m *mockPreparer) Audio(_ context.Context, mood string, _ breath.Pattern) (guide.Guidance, error) {
	m.record(mood)

	m.mu.Lock()
	m.audioCalls++
	m.mu.Unlock()

	if m.audioErr != nil {
		return guide.Guidance{}, m.audioErr
	}

	return m.guidance, nil
}

func (m *mockPreparer) record(mood string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moods = append(m.moods, mood)
}

func (m *mockPreparer) calls() (int, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.audioCalls, append([]string(nil), m.moods...)
}

var errSpeech = errors.New("speech service down")

// mockKnob implements uictl.Knob for testing.
type mockKnob struct {
	on      atomic.Bool
	toggles atomic.Int32
}

func (k *mockKnob) Read() bool { return k.on.Load() }
func (k *mockKnob) On()        { k.on.Store(true) }
func (k *mockKnob) Off()       { k.on.Store(false) }
func (k *mockKnob) Toggle() {
	k.toggles.Add(1)
	k.on.Store(!k.on.Load())
}

// fixedDial implements uictl.CappedDial for testing.
type fixedDial struct {
	num, max int64
}

func (d fixedDial) Read() int64         { return d.num }
func (d fixedDial) Cap() (int64, int64) { return d.num, d.max }
