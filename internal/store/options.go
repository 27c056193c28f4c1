package store

import (
	"log/slog"
	"time"

	"github.com/rickgao/odds-store/internal/broadcast"
	"github.com/rickgao/odds-store/internal/metrics"
)

// DefaultCoalesceWindow is how long DetailStore holds whole-event updates.
const DefaultCoalesceWindow = 800 * time.Millisecond

// Metric labels for the two store modes.
const (
	modeList   = "list"
	modeDetail = "detail"
)

type options struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	window   time.Duration
	cellOpts []broadcast.Option
}

// Option configures a store.
type Option func(*options)

// WithLogger sets the logger. Nil uses slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithCoalesceWindow sets the DetailStore whole-event window. A window of
// zero or less delivers every change immediately.
func WithCoalesceWindow(d time.Duration) Option {
	return func(o *options) {
		o.window = d
	}
}

// WithQueueDepth caps the undelivered values each subscription may hold.
func WithQueueDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cellOpts = append(o.cellOpts, broadcast.WithQueueLimit(n))
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{window: DefaultCoalesceWindow}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
