package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Mutation results.
const (
	ResultApplied   = "applied"
	ResultUnchanged = "unchanged"
	ResultUnknown   = "unknown"
)

// Metrics holds the collectors shared by stores and the feed.
type Metrics struct {
	mutations       *prometheus.CounterVec
	entities        *prometheus.GaugeVec
	subscriptions   *prometheus.CounterVec
	coalesceSubmits *prometheus.CounterVec
	coalesceFlushes *prometheus.CounterVec
	feedMessages    *prometheus.CounterVec
	snapshotPolls   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oddsstore",
			Name:      "mutations_total",
			Help:      "Store mutations by mode, operation and result.",
		}, []string{"mode", "op", "result"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "oddsstore",
			Name:      "entities",
			Help:      "Indexed entities by mode and kind.",
		}, []string{"mode", "kind"}),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oddsstore",
			Name:      "subscriptions_opened_total",
			Help:      "Subscriptions opened by mode and entity kind.",
		}, []string{"mode", "kind"}),
		coalesceSubmits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oddsstore",
			Name:      "coalesce_submitted_total",
			Help:      "Whole-event values submitted to the coalescer.",
		}, []string{"mode"}),
		coalesceFlushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oddsstore",
			Name:      "coalesce_delivered_total",
			Help:      "Whole-event values delivered after coalescing.",
		}, []string{"mode"}),
		feedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oddsstore",
			Name:      "feed_messages_total",
			Help:      "Feed messages by decoded operation and result.",
		}, []string{"op", "result"}),
		snapshotPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oddsstore",
			Name:      "snapshot_polls_total",
			Help:      "Full-refresh snapshot polls by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.mutations,
		m.entities,
		m.subscriptions,
		m.coalesceSubmits,
		m.coalesceFlushes,
		m.feedMessages,
		m.snapshotPolls,
	)

	return m
}

// Mutation counts one store mutation.
func (m *Metrics) Mutation(mode, op, result string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(mode, op, result).Inc()
}

// Entities records the index sizes of a store.
func (m *Metrics) Entities(mode string, events, markets, outcomes int) {
	if m == nil {
		return
	}
	m.entities.WithLabelValues(mode, "event").Set(float64(events))
	m.entities.WithLabelValues(mode, "market").Set(float64(markets))
	m.entities.WithLabelValues(mode, "outcome").Set(float64(outcomes))
}

// Subscription counts an opened subscription.
func (m *Metrics) Subscription(mode, kind string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(mode, kind).Inc()
}

// CoalesceSubmitted counts a value handed to the coalescer.
func (m *Metrics) CoalesceSubmitted(mode string) {
	if m == nil {
		return
	}
	m.coalesceSubmits.WithLabelValues(mode).Inc()
}

// CoalesceDelivered counts a coalesced delivery.
func (m *Metrics) CoalesceDelivered(mode string) {
	if m == nil {
		return
	}
	m.coalesceFlushes.WithLabelValues(mode).Inc()
}

// FeedMessage counts a decoded feed message.
func (m *Metrics) FeedMessage(op, result string) {
	if m == nil {
		return
	}
	m.feedMessages.WithLabelValues(op, result).Inc()
}

// SnapshotPoll counts a snapshot poll cycle.
func (m *Metrics) SnapshotPoll(result string) {
	if m == nil {
		return
	}
	m.snapshotPolls.WithLabelValues(result).Inc()
}

// MutationCounter returns the counter behind Mutation for one label set.
func (m *Metrics) MutationCounter(mode, op, result string) prometheus.Counter {
	return m.mutations.WithLabelValues(mode, op, result)
}
