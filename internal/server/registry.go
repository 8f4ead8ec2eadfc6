package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/catalog"
	"github.com/alkime/breathewise/internal/store"
)

var (
	// ErrSessionNotFound is returned for unknown or already ended session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionMounted is returned when a second stream tries to mount a session.
	ErrSessionMounted = errors.New("session already mounted")
	// ErrSessionNotMounted is returned for commands that need a running session.
	ErrSessionNotMounted = errors.New("session not mounted")
)

const saveTimeout = 5 * time.Second

type entry struct {
	session *breath.Session
	mood    string
	theme   string
	cancel  context.CancelFunc
	done    chan struct{}
}

// Registry owns the live breathing sessions. A session is created
// unmounted, mounted by the first event stream that connects, and removed
// when it is unmounted. Unmounting stops both of its timers and saves a
// session record.
type Registry struct {
	history store.Store
	logger  *slog.Logger
	opts    []breath.SessionOption

	mu      sync.Mutex
	entries map[string]*entry
	wg      sync.WaitGroup
}

// NewRegistry creates an empty registry. opts are applied to every session.
func NewRegistry(history store.Store, logger *slog.Logger, opts ...breath.SessionOption) *Registry {
	return &Registry{
		history: history,
		logger:  logger,
		opts:    append([]breath.SessionOption{breath.WithLogger(logger)}, opts...),
		entries: map[string]*entry{},
	}
}

// Create registers a new unmounted session for mood in theme.
func (r *Registry) Create(mood catalog.Mood, theme catalog.Theme, looping bool) (*breath.Session, error) {
	sess, err := breath.NewSession(mood.BreathingPattern(), looping, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	r.mu.Lock()
	r.entries[sess.ID()] = &entry{session: sess, mood: mood.Name, theme: theme.Name}
	r.mu.Unlock()

	r.logger.Debug("session created", "session", sess.ID(), "mood", mood.Name, "theme", theme.Name)

	return sess, nil
}

// Get returns a registered session.
func (r *Registry) Get(id string) (*breath.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return e.session, nil
}

// Mount subscribes events to the session and starts it. The session runs
// until ctx is cancelled or Unmount is called. The returned channel is
// closed once the session has stopped and its record was saved.
func (r *Registry) Mount(ctx context.Context, id string, events chan<- breath.Event) (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.cancel != nil {
		return nil, ErrSessionMounted
	}

	if err := e.session.Subscribe(events); err != nil {
		return nil, fmt.Errorf("failed to subscribe to session: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	r.wg.Go(func() {
		defer close(e.done)
		defer cancel()

		summary, err := e.session.Run(runCtx)
		r.remove(id)

		if err != nil {
			r.logger.Error("session failed", "session", id, "error", err)
			return
		}

		r.save(e, summary)
	})

	r.logger.Info("session mounted", "session", id, "mood", e.mood, "pattern", e.session.Pattern().Name)

	return e.done, nil
}

// Unmount stops a mounted session and waits until its record is saved. An
// unmounted session is simply dropped.
func (r *Registry) Unmount(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}

	if e.cancel == nil {
		delete(r.entries, id)
		r.mu.Unlock()
		r.logger.Debug("dropped unmounted session", "session", id)

		return nil
	}
	r.mu.Unlock()

	e.cancel()
	<-e.done

	return nil
}

// Restart sends a mounted session back to its first phase.
func (r *Registry) Restart(id string) error {
	e, err := r.mounted(id)
	if err != nil {
		return err
	}

	e.session.Restart()

	return nil
}

// SetLooping changes the looping flag of a registered session.
func (r *Registry) SetLooping(id string, enabled bool) error {
	sess, err := r.Get(id)
	if err != nil {
		return err
	}

	sess.SetLooping(enabled)

	return nil
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Shutdown unmounts every session and waits for their records.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	for id, e := range r.entries {
		if e.cancel != nil {
			e.cancel()
		} else {
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Registry) mounted(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.cancel == nil {
		return nil, ErrSessionNotMounted
	}

	return e, nil
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

func (r *Registry) save(e *entry, summary breath.Summary) {
	if r.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	rec := store.SessionRecord{
		ID:        summary.ID,
		Mood:      e.mood,
		Theme:     e.theme,
		Pattern:   string(summary.Pattern),
		Looping:   summary.Looping,
		StartedAt: summary.StartedAt.UTC(),
		EndedAt:   summary.EndedAt.UTC(),
		Cycles:    int64(summary.Cycles),
	}

	if err := r.history.SaveSession(ctx, rec); err != nil {
		r.logger.Error("failed to save session record", "session", summary.ID, "error", err)
		return
	}

	r.logger.Info("session unmounted", "session", summary.ID, "cycles", summary.Cycles)
}
