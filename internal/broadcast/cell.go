package broadcast

import (
	"sync"

	"github.com/google/uuid"
)

// Default queue sizing for new subscriptions.
const (
	DefaultQueueCapacity = 4
	DefaultQueueLimit    = 1024
)

type options struct {
	queueCapacity int
	queueLimit    int
}

// Option configures a Cell.
type Option func(*options)

// WithQueueCapacity sets the initial queue capacity of each subscription.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		o.queueCapacity = n
	}
}

// WithQueueLimit caps how many undelivered values a subscription may hold
// before the oldest is evicted. Zero means unbounded.
func WithQueueLimit(n int) Option {
	return func(o *options) {
		o.queueLimit = n
	}
}

// Cell is a single-slot, replace-and-notify broadcast cell.
type Cell[T any] struct {
	opts options

	mu      sync.RWMutex
	value   T
	subs    map[uuid.UUID]*Subscription[T]
	order   []uuid.UUID // subscription order; may hold ids already removed
	retired bool
}

// NewCell creates a cell holding v.
func NewCell[T any](v T, opts ...Option) *Cell[T] {
	o := options{
		queueCapacity: DefaultQueueCapacity,
		queueLimit:    DefaultQueueLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cell[T]{opts: o, value: v, subs: make(map[uuid.UUID]*Subscription[T])}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and notifies every live subscription in
// subscription order. Reports false if the cell is retired.
func (c *Cell[T]) Set(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retired {
		return false
	}
	c.value = v
	c.broadcastLocked(v)
	return true
}

// Update applies fn to the current value under the cell lock. The result is
// stored and broadcast only if fn reports a change.
func (c *Cell[T]) Update(fn func(T) (T, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retired {
		return false
	}
	next, changed := fn(c.value)
	if !changed {
		return false
	}
	c.value = next
	c.broadcastLocked(next)
	return true
}

// Subscribe returns a subscription whose first value is the current one.
// Subscribing to a retired cell yields the last value and then ends.
func (c *Cell[T]) Subscribe() *Subscription[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := newSubscription(c, c.opts)
	sub.deliver(c.value)
	if c.retired {
		sub.end()
		return sub
	}
	c.subs[sub.id] = sub
	c.order = append(c.order, sub.id)
	return sub
}

// Subscribers returns the number of live subscriptions.
func (c *Cell[T]) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// Retire makes the cell inert. Later writes are ignored; live subscriptions
// keep what is already queued and then end.
func (c *Cell[T]) Retire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retired {
		return
	}
	c.retired = true
	for _, id := range c.order {
		if sub, ok := c.subs[id]; ok {
			sub.end()
		}
	}
	clear(c.subs)
	c.order = nil
}

// Retired reports whether Retire has been called.
func (c *Cell[T]) Retired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.retired
}

func (c *Cell[T]) broadcastLocked(v T) {
	for _, id := range c.order {
		if sub, ok := c.subs[id]; ok {
			sub.deliver(v)
		}
	}
}

// Unsubscribe ends and detaches the subscription with the given id.
// Reports false if no live subscription has that id.
func (c *Cell[T]) Unsubscribe(id uuid.UUID) bool {
	c.mu.Lock()
	sub, ok := c.subs[id]
	c.mu.Unlock()
	if !ok {
		return false
	}
	sub.Close()
	return true
}

func (c *Cell[T]) unsubscribe(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subs[id]; !ok {
		return
	}
	delete(c.subs, id)
	if len(c.order) > 2*len(c.subs)+8 {
		c.compactLocked()
	}
}

// compactLocked drops removed ids from the order list.
func (c *Cell[T]) compactLocked() {
	kept := c.order[:0]
	for _, id := range c.order {
		if _, ok := c.subs[id]; ok {
			kept = append(kept, id)
		}
	}
	clear(c.order[len(kept):])
	c.order = kept
}
