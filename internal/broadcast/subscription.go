package broadcast

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned by Recv once a subscription has ended and its queue
// is drained.
var ErrClosed = errors.New("subscription closed")

// Subscription is one subscriber's view of a Cell. The caller owns it and must
// Close it when done; closing never affects other subscribers or the cell.
type Subscription[T any] struct {
	id    uuid.UUID
	owner *Cell[T]

	mu      sync.Mutex
	queue   *queue[T]
	ended   bool
	dropped int64

	ready chan struct{} // capacity 1, signalled on every delivery
	done  chan struct{} // closed when the subscription ends
}

func newSubscription[T any](owner *Cell[T], opts options) *Subscription[T] {
	return &Subscription[T]{
		id:    uuid.New(),
		owner: owner,
		queue: newQueue[T](opts.queueCapacity, opts.queueLimit),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// ID returns the subscription's unique id.
func (s *Subscription[T]) ID() uuid.UUID {
	return s.id
}

// Recv blocks until the next value is available, the subscription ends, or
// ctx is done. Values queued before the end are still returned.
func (s *Subscription[T]) Recv(ctx context.Context) (T, error) {
	for {
		s.mu.Lock()
		if v, ok := s.queue.pop(); ok {
			s.mu.Unlock()
			return v, nil
		}
		ended := s.ended
		s.mu.Unlock()

		if ended {
			var zero T
			return zero, ErrClosed
		}

		select {
		case <-s.ready:
		case <-s.done:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// TryRecv returns the next queued value without blocking.
func (s *Subscription[T]) TryRecv() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.pop()
}

// Pending returns the number of queued, undelivered values.
func (s *Subscription[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// Dropped returns how many values were evicted because the reader fell behind.
func (s *Subscription[T]) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Done is closed when the subscription ends, either through Close or because
// the cell was retired. Queued values may still be read afterwards.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Close ends the subscription and detaches it from its cell. Safe to call
// more than once and from any goroutine.
func (s *Subscription[T]) Close() {
	if !s.end() {
		return
	}
	if s.owner != nil {
		s.owner.unsubscribe(s.id)
	}
}

// deliver enqueues v. Called by the owning cell with its lock held.
func (s *Subscription[T]) deliver(v T) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	if s.queue.push(v) {
		s.dropped++
	}
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// end stops further deliveries. Reports false if already ended.
func (s *Subscription[T]) end() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.ended = true
	close(s.done)
	return true
}
