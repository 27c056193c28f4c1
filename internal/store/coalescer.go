package store

import (
	"sync"
	"time"
)

// Coalescer collapses bursts of submitted values into at most one delivery
// per window. The first Submit after a delivery arms a timer; when it fires
// the most recently submitted value is delivered. Later submits within the
// window replace the pending value without re-arming the timer.
//
// Deliveries happen under the coalescer lock, so a timed delivery and a
// Publish never interleave out of order.
type Coalescer[T any] struct {
	window  time.Duration
	deliver func(T)

	mu      sync.Mutex
	pending T
	armed   bool
	gen     uint64
	timer   *time.Timer
	stopped bool
}

// NewCoalescer creates a coalescer that hands values to deliver. A window of
// zero or less delivers every submit synchronously.
func NewCoalescer[T any](window time.Duration, deliver func(T)) *Coalescer[T] {
	return &Coalescer[T]{window: window, deliver: deliver}
}

// Submit records v as the latest value and arms the timer if idle.
// Reports whether a delivery is now pending.
func (c *Coalescer[T]) Submit(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return false
	}
	if c.window <= 0 {
		c.deliver(v)
		return false
	}

	c.pending = v
	if !c.armed {
		c.armed = true
		c.gen++
		gen := c.gen
		c.timer = time.AfterFunc(c.window, func() { c.fire(gen) })
	}
	return true
}

// Publish cancels any pending delivery and delivers v now.
func (c *Coalescer[T]) Publish(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.cancelLocked()
	c.deliver(v)
}

// Flush delivers the pending value now, if any.
func (c *Coalescer[T]) Flush() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.armed {
		return false
	}
	v := c.pending
	c.cancelLocked()
	c.deliver(v)
	return true
}

// Cancel drops the pending value without delivering it.
func (c *Coalescer[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// Pending reports whether a delivery is armed.
func (c *Coalescer[T]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Stop cancels the pending value and ignores all later calls.
func (c *Coalescer[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.stopped = true
}

func (c *Coalescer[T]) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A Publish, Flush or Cancel since arming supersedes this timer.
	if !c.armed || gen != c.gen {
		return
	}
	v := c.pending
	c.armed = false
	var zero T
	c.pending = zero
	c.deliver(v)
}

func (c *Coalescer[T]) cancelLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	var zero T
	c.pending = zero
	c.armed = false
	c.gen++
}
