package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/odds-store/internal/api"
	"github.com/rickgao/odds-store/internal/metrics"
	"github.com/rickgao/odds-store/internal/model"
)

// TargetKind says what a Target id refers to.
type TargetKind string

const (
	TargetCompetition TargetKind = "competition"
	TargetEvent       TargetKind = "event"
)

// Target is one unit of polling work.
type Target struct {
	Kind TargetKind
	ID   string
}

// Snapshot is the converted result of polling one target.
type Snapshot struct {
	Target    Target
	Events    []model.Event
	FetchedAt time.Time
	Attempts  int // HTTP requests the fetch took, retries and pages included
}

// EventSource is the REST surface the poller needs. *api.Client satisfies it.
type EventSource interface {
	GetAllEvents(ctx context.Context, competitionID string) ([]api.EventWire, error)
	GetEvent(ctx context.Context, id string) (*api.EventWire, error)
}

// SnapshotHandler receives fetched snapshots.
type SnapshotHandler interface {
	HandleSnapshot(snapshot Snapshot) error
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(Snapshot) error

func (f SnapshotHandlerFunc) HandleSnapshot(s Snapshot) error {
	return f(s)
}

// Config holds poller configuration.
type Config struct {
	Interval     time.Duration // Poll interval (default: 5m)
	Concurrency  int           // Max concurrent requests (default: 4)
	Timeout      time.Duration // Per-target timeout (default: 30s)
	Competitions []string      // Competition ids polled with GetAllEvents
	Events       []string      // Event ids polled with GetEvent
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    5 * time.Minute,
		Concurrency: 4,
		Timeout:     30 * time.Second,
	}
}

// Targets expands the configured ids into poll targets, competitions first.
func (c Config) Targets() []Target {
	targets := make([]Target, 0, len(c.Competitions)+len(c.Events))
	for _, id := range c.Competitions {
		targets = append(targets, Target{Kind: TargetCompetition, ID: id})
	}
	for _, id := range c.Events {
		targets = append(targets, Target{Kind: TargetEvent, ID: id})
	}
	return targets
}

// Poller periodically fetches event snapshots via the REST API.
type Poller struct {
	cfg     Config
	source  EventSource
	handler SnapshotHandler
	metrics *metrics.Metrics
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. m may be nil.
func New(cfg Config, source EventSource, handler SnapshotHandler, m *metrics.Metrics, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		handler: handler,
		metrics: m,
		logger:  logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	if p.cfg.Interval <= 0 {
		return fmt.Errorf("poller: interval must be positive, got %s", p.cfg.Interval)
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("snapshot poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
		"competitions", len(p.cfg.Competitions),
		"events", len(p.cfg.Events),
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("snapshot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll()
		}
	}
}

// pollAll fetches every target concurrently.
func (p *Poller) pollAll() {
	start := time.Now()

	targets := p.cfg.Targets()
	if len(targets) == 0 {
		p.logger.Debug("no snapshot targets to poll")
		return
	}

	// Semaphore for bounded concurrency.
	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	var fetched, failed, events atomic.Int64

	for _, target := range targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()

			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-p.ctx.Done():
				return
			}

			n, err := p.pollTarget(t)
			if err != nil {
				p.logger.Warn("failed to poll snapshot",
					"kind", t.Kind,
					"id", t.ID,
					"err", err,
				)
				failed.Add(1)
				p.metrics.SnapshotPoll("error")
				return
			}

			fetched.Add(1)
			events.Add(int64(n))
			p.metrics.SnapshotPoll("ok")
		}(target)
	}

	wg.Wait()

	p.logger.Info("poll cycle complete",
		"targets", len(targets),
		"fetched", fetched.Load(),
		"events", events.Load(),
		"errors", failed.Load(),
		"duration", time.Since(start),
	)
}

// pollTarget fetches and handles one target, returning the number of events.
func (p *Poller) pollTarget(t Target) (int, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()
	ctx, attempts := api.WithAttempts(ctx)

	var wires []api.EventWire
	switch t.Kind {
	case TargetCompetition:
		all, err := p.source.GetAllEvents(ctx, t.ID)
		if err != nil {
			return 0, err
		}
		wires = all
	case TargetEvent:
		ev, err := p.source.GetEvent(ctx, t.ID)
		if err != nil {
			return 0, err
		}
		wires = []api.EventWire{*ev}
	default:
		return 0, fmt.Errorf("unknown target kind %q", t.Kind)
	}

	snapshot := Snapshot{
		Target:    t,
		Events:    make([]model.Event, 0, len(wires)),
		FetchedAt: time.Now(),
		Attempts:  attempts.Load(),
	}
	if snapshot.Attempts > 1 {
		p.logger.Debug("snapshot needed retries",
			"kind", t.Kind,
			"id", t.ID,
			"attempts", snapshot.Attempts,
		)
	}
	for _, w := range wires {
		snapshot.Events = append(snapshot.Events, w.ToModel())
	}

	if p.handler != nil {
		if err := p.handler.HandleSnapshot(snapshot); err != nil {
			return 0, err
		}
	}

	return len(snapshot.Events), nil
}
