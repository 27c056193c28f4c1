package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/odds-store/internal/api"
	"github.com/rickgao/odds-store/internal/config"
	"github.com/rickgao/odds-store/internal/connection"
	"github.com/rickgao/odds-store/internal/feed"
	"github.com/rickgao/odds-store/internal/metrics"
	"github.com/rickgao/odds-store/internal/poller"
	"github.com/rickgao/odds-store/internal/store"
	"github.com/rickgao/odds-store/internal/version"
)

// component is a long-running part of the pipeline.
type component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type namedComponent struct {
	name string
	c    component
}

func main() {
	configPath := flag.String("config", "configs/oddsstore.local.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}

	// Set up structured logging
	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting odds store",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)
	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"mode", cfg.Store.Mode,
		"feed_enabled", cfg.Feed.Enabled(),
		"snapshot_enabled", cfg.Snapshot.Enabled(),
	)

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("odds store failed", "error", err)
		os.Exit(1)
	}

	logger.Info("odds store stopped")
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// run wires the pipeline and blocks until ctx is done or a component fails.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	storeOpts := []store.Option{
		store.WithLogger(logger.With("component", "store")),
		store.WithMetrics(m),
		store.WithCoalesceWindow(cfg.Store.CoalesceWindow),
		store.WithQueueDepth(cfg.Store.QueueDepth),
	}

	var (
		view          storeView
		target        feed.Target
		handler       poller.SnapshotHandler
		pollerTargets = poller.DefaultConfig()
	)
	pollerTargets.Competitions = cfg.Snapshot.Competitions
	pollerTargets.Events = cfg.Snapshot.Events

	switch cfg.Store.Mode {
	case config.ModeDetail:
		ds := store.NewDetailStore(storeOpts...)
		defer ds.Close()
		view = detailView{ds}
		target = feed.DetailTarget(ds)
		handler = poller.DetailHandler(ds, cfg.Store.EventID)
		pollerTargets.Competitions = nil
		pollerTargets.Events = []string{cfg.Store.EventID}
	default:
		ls := store.NewListStore(storeOpts...)
		view = listView{ls}
		target = feed.ListTarget(ls)
		handler = poller.ListHandler(ls)
	}

	var (
		components []namedComponent
		manager    connection.Manager
		router     feed.Router
	)

	if cfg.Feed.Enabled() {
		mc, err := cfg.Feed.ManagerConfig()
		if err != nil {
			return err
		}
		manager = connection.NewManager(mc, logger.With("component", "connection"))
		router = feed.NewRouter(manager.Messages(), target, m, logger.With("component", "feed"))
		// The router starts first so nothing read from the socket waits on it.
		components = append(components,
			namedComponent{"feed router", router},
			namedComponent{"connection manager", manager},
		)
	}

	if cfg.Snapshot.Enabled() {
		client := api.NewClient(
			cfg.Snapshot.RestURL,
			cfg.Snapshot.APIKey,
			api.WithLogger(logger.With("component", "api")),
			api.WithTimeout(cfg.Snapshot.Timeout),
			api.WithRetries(cfg.Snapshot.MaxRetries, cfg.Snapshot.RetryBackoff),
			api.WithUserAgent(version.UserAgent()),
		)
		pc := pollerTargets
		pc.Interval = cfg.Snapshot.Interval
		pc.Timeout = cfg.Snapshot.Timeout
		pc.Concurrency = cfg.Snapshot.Concurrency
		p := poller.New(pc, client, handler, m, logger.With("component", "poller"))
		components = append(components, namedComponent{"snapshot poller", p})
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           newHandler(cfg, reg, view, manager, router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "port", cfg.Metrics.Port, "metrics_path", cfg.Metrics.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	started := make([]namedComponent, 0, len(components))
	for _, nc := range components {
		if err := nc.c.Start(gctx); err != nil {
			stopAll(started, logger)
			server.Close()
			g.Wait()
			return fmt.Errorf("start %s: %w", nc.name, err)
		}
		logger.Info("component started", "name", nc.name)
		started = append(started, nc)
	}

	logger.Info("odds store running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		stopAll(started, logger)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// stopAll stops components in reverse start order.
func stopAll(started []namedComponent, logger *slog.Logger) {
	for i := len(started) - 1; i >= 0; i-- {
		nc := started[i]
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := nc.c.Stop(stopCtx); err != nil {
			logger.Warn("component stop failed", "name", nc.name, "error", err)
		}
		cancel()
	}
}

// newHandler serves health, metrics and the debug view of the store.
func newHandler(cfg *config.Config, reg *prometheus.Registry, view storeView, manager connection.Manager, router feed.Router) http.Handler {
	r := mux.NewRouter()
	r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})).Methods(http.MethodGet)
	r.Handle("/health", healthHandler(view, manager, router)).Methods(http.MethodGet)

	debug := r.PathPrefix("/debug").Subrouter()
	debug.Handle("/events", debugEventsHandler(view)).Methods(http.MethodGet)
	debug.Handle("/events/{id}", entityHandler("event", view.Event)).Methods(http.MethodGet)
	debug.Handle("/markets/{id}", entityHandler("market", view.Market)).Methods(http.MethodGet)
	debug.Handle("/outcomes/{id}", entityHandler("outcome", outcomeDetails(view.Outcome))).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Metrics.CORSOrigins,
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(r)
}
