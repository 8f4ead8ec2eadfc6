package channels

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// subscriber holds a channel and its send timeout configuration.
type subscriber[T any] struct {
	ch       chan<- T
	timeout  time.Duration // zero means non-blocking
	inactive atomic.Bool
	dropped  atomic.Int32
}

func (s *subscriber[T]) send(msg T) {
	if s.inactive.Load() {
		s.dropped.Add(1)
		return
	}

	var err error
	if s.timeout > 0 {
		err = SendWithTimeout(s.ch, msg, s.timeout)
	} else {
		err = SendNonBlock(s.ch, msg)
	}

	if err != nil {
		// a closed channel never recovers, a full one might
		s.dropped.Add(1)
		if errors.Is(err, ErrChannelClosed) {
			s.inactive.Store(true)
		}
	}
}

// Broadcaster copies every message from a single input channel to each
// subscriber channel. It owns the input channel and shuts down when the
// context passed to Run is cancelled.
//
// Subscribers never block the broadcaster for long: a non-blocking
// subscriber drops messages while its channel is full, a timeout subscriber
// drops them once the timeout expires. A subscriber whose channel was closed
// is marked inactive and skipped from then on.
type Broadcaster[T any] struct {
	subscribers []*subscriber[T]
	input       chan T
	started     atomic.Bool
	wg          sync.WaitGroup
}

// NewBroadcaster creates a Broadcaster for messages of type T.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// Subscribe adds a non-blocking subscriber. Must be called before Run.
func (f *Broadcaster[T]) Subscribe(ch chan<- T) error {
	if ch == nil {
		return errors.New("subscriber channel cannot be nil")
	}

	f.subscribers = append(f.subscribers, &subscriber[T]{ch: ch})

	return nil
}

// SubscribeWithTimeout adds a subscriber that waits up to timeout for room
// in its channel. Must be called before Run.
func (f *Broadcaster[T]) SubscribeWithTimeout(ch chan<- T, timeout time.Duration) error {
	if ch == nil {
		return errors.New("subscriber channel cannot be nil")
	}

	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	f.subscribers = append(f.subscribers, &subscriber[T]{ch: ch, timeout: timeout})

	return nil
}

// Len returns the number of subscribers.
func (f *Broadcaster[T]) Len() int {
	return len(f.subscribers)
}

// Run starts the broadcaster and returns the input channel.
//
// The input channel is closed when ctx is cancelled; messages already in it
// are still delivered before Wait returns. Senders must stop sending before
// cancelling ctx.
func (f *Broadcaster[T]) Run(ctx context.Context) (chan<- T, error) {
	if len(f.subscribers) == 0 {
		return nil, errors.New("no subscribers available")
	}

	if !f.started.CompareAndSwap(false, true) {
		return nil, errors.New("broadcaster already started")
	}

	f.input = make(chan T, len(f.subscribers)*2)

	f.wg.Go(func() {
		for msg := range f.input {
			for _, sub := range f.subscribers {
				sub.send(msg)
			}
		}
	})

	go func() {
		<-ctx.Done()
		close(f.input)
	}()

	return f.input, nil
}

// Wait blocks until the input channel has been closed and drained.
func (f *Broadcaster[T]) Wait() {
	f.wg.Wait()
}

// SubscriberStats reports delivery health for one subscriber.
type SubscriberStats struct {
	Dropped  int
	Inactive bool
}

// Stats returns per-subscriber stats in subscription order.
func (f *Broadcaster[T]) Stats() []SubscriberStats {
	stats := make([]SubscriberStats, 0, len(f.subscribers))
	for _, sub := range f.subscribers {
		stats = append(stats, SubscriberStats{
			Dropped:  int(sub.dropped.Load()),
			Inactive: sub.inactive.Load(),
		})
	}

	return stats
}
