package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rickgao/odds-store/internal/connection"
	"github.com/rickgao/odds-store/internal/metrics"
)

// Router decodes raw feed messages and applies them to a Target.
type Router interface {
	// Start begins consuming the input channel.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the router.
	Stop(ctx context.Context) error

	// Stats returns current router statistics.
	Stats() RouterStats
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	MessagesReceived int64
	UpdatesApplied   int64
	Unsupported      int64 // updates the target has no operation for
	Ignored          int64 // containers that mapped to no update
	ParseErrors      int64
	Sessions         int64 // connection sessions seen
}

// router is the internal implementation.
type router struct {
	target  Target
	metrics *metrics.Metrics
	logger  *slog.Logger

	// Input from Connection Manager
	input <-chan connection.RawMessage

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	session     int
	received    int64
	applied     int64
	unsupported int64
	ignored     int64
	parseErrors int64
	sessions    int64
}

// NewRouter creates a new feed router. m may be nil.
func NewRouter(input <-chan connection.RawMessage, target Target, m *metrics.Metrics, logger *slog.Logger) Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &router{
		target:  target,
		metrics: m,
		logger:  logger,
		input:   input,
	}
}

// Start begins routing messages.
func (r *router) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.routeLoop()

	r.logger.Info("feed router started")

	return nil
}

// Stop gracefully shuts down the router.
func (r *router) Stop(ctx context.Context) error {
	r.logger.Info("stopping feed router")

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("feed router stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("feed router stop timed out")
		return ctx.Err()
	}
}

// Stats returns current statistics.
func (r *router) Stats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RouterStats{
		MessagesReceived: r.received,
		UpdatesApplied:   r.applied,
		Unsupported:      r.unsupported,
		Ignored:          r.ignored,
		ParseErrors:      r.parseErrors,
		Sessions:         r.sessions,
	}
}

// routeLoop is the main routing goroutine.
func (r *router) routeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case raw, ok := <-r.input:
			if !ok {
				r.logger.Info("input channel closed")
				return
			}
			r.route(raw)
		}
	}
}

// route decodes and applies a single message.
func (r *router) route(raw connection.RawMessage) {
	r.mu.Lock()
	r.received++
	newSession := raw.Session != r.session
	if newSession {
		r.session = raw.Session
		r.sessions++
	}
	r.mu.Unlock()

	if newSession {
		r.logger.Info("feed session changed", "session", raw.Session)
	}

	n, err := Decode(raw.Data)
	if err != nil {
		r.logger.Warn("failed to decode feed message", "error", err)
		r.metrics.FeedMessage("notification", "error")
		r.mu.Lock()
		r.parseErrors++
		r.mu.Unlock()
		return
	}

	if n.Type == NotificationListeningStarted {
		r.logger.Debug("listening started", "session_token", n.Session)
	}

	for _, e := range n.Errors {
		r.logger.Warn("failed to decode content change", "error", e)
		r.metrics.FeedMessage("container", "error")
	}
	if n.Ignored > 0 {
		r.logger.Debug("ignored content changes", "count", n.Ignored, "type", n.Type)
		for i := 0; i < n.Ignored; i++ {
			r.metrics.FeedMessage("container", "ignored")
		}
	}

	var applied, unsupported int64
	for _, u := range n.Updates {
		if r.target.Apply(u) {
			applied++
			r.metrics.FeedMessage(string(u.Op), "applied")
			continue
		}
		unsupported++
		r.metrics.FeedMessage(string(u.Op), "unsupported")
		r.logger.Debug("update not supported by store", "op", u.Op, "content", u.Content.String())
	}

	r.mu.Lock()
	r.applied += applied
	r.unsupported += unsupported
	r.ignored += int64(n.Ignored)
	r.parseErrors += int64(len(n.Errors))
	r.mu.Unlock()
}
