package store

import (
	"log/slog"
	"sync"

	"github.com/rickgao/odds-store/internal/broadcast"
	"github.com/rickgao/odds-store/internal/metrics"
	"github.com/rickgao/odds-store/internal/model"
	"github.com/rickgao/odds-store/internal/registry"
)

// DetailStore caches exactly one event with all of its markets and outcomes.
//
// The whole-event stream is coalesced: changes are delivered at most once per
// window, always carrying the latest state. Market and outcome streams are
// not coalesced. Until StoreEvent is called the store is empty and every
// mutator is a no-op.
type DetailStore struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	reg       *registry.Registry
	eventID   string   // "" while empty
	marketIDs []string // event market order

	public    *broadcast.Cell[*model.Event] // nil while empty
	coalescer *Coalescer[*model.Event]
}

// NewDetailStore creates an empty detail store.
func NewDetailStore(opts ...Option) *DetailStore {
	o := buildOptions(opts)
	s := &DetailStore{
		logger:  o.logger,
		metrics: o.metrics,
		reg:     registry.New(o.cellOpts...),
		public:  broadcast.NewCell[*model.Event](nil, o.cellOpts...),
	}
	s.coalescer = NewCoalescer(o.window, s.deliver)
	return s
}

// StoreEvent replaces the stored event. The market and outcome indices are
// rebuilt from e and the whole-event stream receives e immediately. For the
// same event id, markets and outcomes that e still carries keep their cells
// and subscriptions; the rest are retired. A different event id starts over.
func (s *DetailStore) StoreEvent(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	if s.eventID != "" && s.eventID != e.ID {
		s.reg.Clear()
	} else {
		dropped = s.reg.Retain(e)
	}
	cell := s.reg.UpsertEvent(e)
	v := cell.Get()
	s.eventID = v.ID
	s.marketIDs = v.MarketIDs()

	s.coalescer.Publish(&v)
	s.updateEntitiesLocked()
	s.metrics.Mutation(modeDetail, "store_event", metrics.ResultApplied)
	s.logger.Debug("stored event",
		"event_id", v.ID,
		"markets", len(v.Markets),
		"dropped", dropped,
	)
}

// Reset empties the store and publishes nil immediately.
func (s *DetailStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reg.Clear()
	s.eventID = ""
	s.marketIDs = nil

	s.coalescer.Publish(nil)
	s.updateEntitiesLocked()
	s.metrics.Mutation(modeDetail, "reset", metrics.ResultApplied)
	s.logger.Info("detail store reset")
}

// AddMarket indexes m and appends it to the event's markets. A known market
// id only has its tradability refreshed.
func (s *DetailStore) AddMarket(m model.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eventID == "" {
		s.unknown("add_market", m.ID)
		return
	}
	if cell, ok := s.reg.Market(m.ID); ok {
		changed := cell.Update(setMarketTradable(m.IsTradable))
		s.commitLocked("add_market", changed)
		return
	}

	m.EventID = s.eventID
	s.reg.UpsertMarket(m)
	s.marketIDs = append(s.marketIDs, m.ID)
	s.updateEntitiesLocked()
	s.commitLocked("add_market", true)
}

// RemoveMarket drops the market and its outcomes.
func (s *DetailStore) RemoveMarket(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reg.RemoveMarket(id); !ok {
		s.unknown("remove_market", id)
		return
	}
	s.marketIDs = removeID(s.marketIDs, id)
	s.updateEntitiesLocked()
	s.commitLocked("remove_market", true)
}

// UpdateOutcomeOdd sets an outcome's odds from raw feed components.
// Components that fail to parse keep their previous value.
func (s *DetailStore) UpdateOutcomeOdd(id, numerator, denominator string) {
	s.updateOutcome("update_outcome_odd", id, setOdd(numerator, denominator))
}

// UpdateOutcomeTradability sets whether an outcome accepts bets.
func (s *DetailStore) UpdateOutcomeTradability(id string, tradable bool) {
	s.updateOutcome("update_outcome_tradability", id, setOutcomeTradable(tradable))
}

// UpdateMarketTradability sets whether a market accepts bets.
func (s *DetailStore) UpdateMarketTradability(id string, tradable bool) {
	s.updateMarket("update_market_tradability", id, tradable)
}

// EnableMarket marks a market tradable.
func (s *DetailStore) EnableMarket(id string) {
	s.updateMarket("enable_market", id, true)
}

// UpdateEventStatus sets the event status from a provider status code.
func (s *DetailStore) UpdateEventStatus(id, code string) {
	s.updateEvent("update_event_status", id, setStatus(code))
}

// UpdateEventTime sets the live match clock.
func (s *DetailStore) UpdateEventTime(id, matchTime string) {
	s.updateEvent("update_event_time", id, setMatchTime(matchTime))
}

// UpdateEventScore sets the headline score. Nil sides are left unchanged.
func (s *DetailStore) UpdateEventScore(id string, home, away *int) {
	s.updateEvent("update_event_score", id, setScore(home, away))
}

// UpdateEventDetailedScore merges one score dimension into the event.
func (s *DetailStore) UpdateEventDetailedScore(id string, score model.Score) {
	s.updateEvent("update_event_detailed_score", id, setDetailedScore(score))
}

// UpdateEventFullDetailedScore replaces the event's whole score map.
func (s *DetailStore) UpdateEventFullDetailedScore(id string, scores map[string]model.Score) {
	s.updateEvent("update_event_full_detailed_score", id, setFullDetailedScore(scores))
}

// UpdateEventMarketCount sets the provider's total market count.
func (s *DetailStore) UpdateEventMarketCount(id string, n int) {
	s.updateEvent("update_event_market_count", id, setMarketCount(n))
}

// UpdateEventServing sets which participant is serving.
func (s *DetailStore) UpdateEventServing(id string, side model.ServingSide) {
	s.updateEvent("update_event_serving", id, setServing(side))
}

// SubscribeEvent streams the whole event, coalesced. The first value is the
// current one, nil while the store is empty.
func (s *DetailStore) SubscribeEvent() *broadcast.Subscription[*model.Event] {
	s.metrics.Subscription(modeDetail, "event")
	return s.public.Subscribe()
}

// SubscribeMarket streams one market. Reports false if the id is unknown.
func (s *DetailStore) SubscribeMarket(id string) (*broadcast.Subscription[model.Market], bool) {
	s.mu.Lock()
	cell, ok := s.reg.Market(id)
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.metrics.Subscription(modeDetail, "market")
	return cell.Subscribe(), true
}

// SubscribeOutcome streams one outcome. Reports false if the id is unknown.
func (s *DetailStore) SubscribeOutcome(id string) (*broadcast.Subscription[model.Outcome], bool) {
	s.mu.Lock()
	cell, ok := s.reg.Outcome(id)
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.metrics.Subscription(modeDetail, "outcome")
	return cell.Subscribe(), true
}

// Event returns the current event, which may be ahead of what the coalesced
// stream has delivered. Reports false while empty.
func (s *DetailStore) Event() (model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, ok := s.reg.Event(s.eventID)
	if !ok {
		return model.Event{}, false
	}
	return cell.Get(), true
}

// Market returns the current value of one market.
func (s *DetailStore) Market(id string) (model.Market, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, ok := s.reg.Market(id)
	if !ok {
		return model.Market{}, false
	}
	return cell.Get(), true
}

// Outcome returns the current value of one outcome.
func (s *DetailStore) Outcome(id string) (model.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, ok := s.reg.Outcome(id)
	if !ok {
		return model.Outcome{}, false
	}
	return cell.Get(), true
}

// Flush delivers any pending whole-event change now.
func (s *DetailStore) Flush() {
	s.coalescer.Flush()
}

// Close stops the coalescer timer. Pending changes are dropped.
func (s *DetailStore) Close() {
	s.coalescer.Stop()
}

func (s *DetailStore) updateOutcome(op, id string, fn func(model.Outcome) (model.Outcome, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, ok := s.reg.Outcome(id)
	if !ok {
		s.unknown(op, id)
		return
	}
	changed := cell.Update(fn)
	if changed {
		s.reg.RefreshMarket(cell.Get().MarketID)
	}
	s.commitLocked(op, changed)
}

func (s *DetailStore) updateMarket(op, id string, tradable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, ok := s.reg.Market(id)
	if !ok {
		s.unknown(op, id)
		return
	}
	s.commitLocked(op, cell.Update(setMarketTradable(tradable)))
}

func (s *DetailStore) updateEvent(op, id string, fn func(model.Event) (model.Event, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eventID == "" || id != s.eventID {
		s.unknown(op, id)
		return
	}
	cell, _ := s.reg.Event(id)
	s.commitLocked(op, cell.Update(fn))
}

// commitLocked rebuilds the event's markets from the registry and hands the
// result to the coalescer.
func (s *DetailStore) commitLocked(op string, changed bool) {
	if !changed {
		s.metrics.Mutation(modeDetail, op, metrics.ResultUnchanged)
		return
	}
	e, ok := s.reg.ReconcileEvent(s.eventID, s.marketIDs)
	if !ok {
		return
	}
	s.coalescer.Submit(&e)
	s.metrics.CoalesceSubmitted(modeDetail)
	s.metrics.Mutation(modeDetail, op, metrics.ResultApplied)
}

// deliver runs under the coalescer lock.
func (s *DetailStore) deliver(e *model.Event) {
	s.public.Set(e)
	s.metrics.CoalesceDelivered(modeDetail)
}

func (s *DetailStore) updateEntitiesLocked() {
	events, markets, outcomes := s.reg.Counts()
	s.metrics.Entities(modeDetail, events, markets, outcomes)
}

func (s *DetailStore) unknown(op, id string) {
	s.metrics.Mutation(modeDetail, op, metrics.ResultUnknown)
	s.logger.Debug("ignoring update for unknown id", "op", op, "id", id)
}
