package store

import (
	"log/slog"
	"sync"

	"github.com/rickgao/odds-store/internal/broadcast"
	"github.com/rickgao/odds-store/internal/metrics"
	"github.com/rickgao/odds-store/internal/model"
	"github.com/rickgao/odds-store/internal/registry"
)

// ListStore caches many events and publishes the ordered list of all of
// them, re-derived from the registry on every change.
type ListStore struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	reg    *registry.Registry
	events *broadcast.Cell[[]model.Event] // nil until the first ingest or after Reset
}

// NewListStore creates an empty list store.
func NewListStore(opts ...Option) *ListStore {
	o := buildOptions(opts)
	return &ListStore{
		logger:  o.logger,
		metrics: o.metrics,
		reg:     registry.New(o.cellOpts...),
		events:  broadcast.NewCell[[]model.Event](nil, o.cellOpts...),
	}
}

// StoreEvents bulk-ingests events. Known ids are overwritten in place, so
// a full refresh merges with live deltas. The aggregate list is republished
// once for the whole batch.
func (s *ListStore) StoreEvents(events []model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.storeEventsLocked(events)
	s.metrics.Mutation(modeList, "store_events", metrics.ResultApplied)
	s.logger.Debug("stored events", "count", len(events))
}

// AddEvent indexes a new event. For an event already known only the
// tradability of its markets is refreshed from e; the rest of e is ignored.
func (s *ListStore) AddEvent(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reg.Event(e.ID); ok {
		refreshed := 0
		for _, m := range e.Markets {
			cell, ok := s.reg.Market(m.ID)
			if !ok {
				continue
			}
			if cell.Update(setMarketTradable(m.IsTradable)) {
				refreshed++
			}
		}
		if refreshed > 0 {
			s.reconcileLocked(e.ID)
		}
		s.metrics.Mutation(modeList, "add_event", metrics.ResultUnchanged)
		s.logger.Debug("event already known, refreshed tradability",
			"event_id", e.ID,
			"markets_changed", refreshed,
		)
		return
	}

	s.storeEventsLocked([]model.Event{e})
	s.metrics.Mutation(modeList, "add_event", metrics.ResultApplied)
}

// RemoveEvent suspends every market of the event, then drops the event and
// republishes the list. Its markets and outcomes stay indexed.
func (s *ListStore) RemoveEvent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, ok := s.reg.Event(id)
	if !ok {
		s.unknown("remove_event", id)
		return
	}
	for _, mid := range cell.Get().MarketIDs() {
		if mc, ok := s.reg.Market(mid); ok {
			mc.Update(setMarketTradable(false))
		}
	}
	s.reg.RemoveEvent(id)
	s.publishLocked()
	s.metrics.Mutation(modeList, "remove_event", metrics.ResultApplied)
}

// AddMarket indexes m under its event, appends it to the event's markets
// and republishes the list. A known market id only has its tradability
// refreshed.
func (s *ListStore) AddMarket(eventID string, m model.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cell, ok := s.reg.Market(m.ID); ok {
		changed := cell.Update(setMarketTradable(m.IsTradable))
		if changed {
			s.reconcileLocked(cell.Get().EventID)
		}
		s.record("add_market", changed)
		return
	}
	ec, ok := s.reg.Event(eventID)
	if !ok {
		s.unknown("add_market", eventID)
		return
	}
	m.EventID = eventID
	s.reg.UpsertMarket(m)
	ids := append(ec.Get().MarketIDs(), m.ID)
	s.reg.ReconcileEvent(eventID, ids)
	s.publishLocked()
	s.metrics.Mutation(modeList, "add_market", metrics.ResultApplied)
}

// RemoveMarket drops the market and its outcomes and removes it from its
// event's markets.
func (s *ListStore) RemoveMarket(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.reg.RemoveMarket(id)
	if !ok {
		s.unknown("remove_market", id)
		return
	}
	if ec, ok := s.reg.Event(m.EventID); ok {
		s.reg.ReconcileEvent(m.EventID, removeID(ec.Get().MarketIDs(), id))
	}
	s.publishLocked()
	s.metrics.Mutation(modeList, "remove_market", metrics.ResultApplied)
}

// UpdateOutcomeOdd sets an outcome's odds from raw feed components.
// Components that fail to parse keep their previous value.
func (s *ListStore) UpdateOutcomeOdd(id, numerator, denominator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateOutcomeLocked("update_outcome_odd", id, setOdd(numerator, denominator))
}

// UpdateOutcomeTradability sets whether an outcome accepts bets.
func (s *ListStore) UpdateOutcomeTradability(id string, tradable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateOutcomeLocked("update_outcome_tradability", id, setOutcomeTradable(tradable))
}

// UpdateMarketTradability sets whether a market accepts bets.
func (s *ListStore) UpdateMarketTradability(id string, tradable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateMarketLocked("update_market_tradability", id, tradable)
}

// EnableMarket marks a market tradable.
func (s *ListStore) EnableMarket(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateMarketLocked("enable_market", id, true)
}

// UpdateEventStatus sets the event status from a provider status code.
func (s *ListStore) UpdateEventStatus(id, code string) {
	s.updateEvent("update_event_status", id, setStatus(code))
}

// UpdateEventTime sets the live match clock.
func (s *ListStore) UpdateEventTime(id, matchTime string) {
	s.updateEvent("update_event_time", id, setMatchTime(matchTime))
}

// UpdateEventScore sets the headline score. Nil sides are left unchanged.
func (s *ListStore) UpdateEventScore(id string, home, away *int) {
	s.updateEvent("update_event_score", id, setScore(home, away))
}

// UpdateEventDetailedScore merges one score dimension into the event.
func (s *ListStore) UpdateEventDetailedScore(id string, score model.Score) {
	s.updateEvent("update_event_detailed_score", id, setDetailedScore(score))
}

// UpdateEventMarketCount sets the provider's total market count.
func (s *ListStore) UpdateEventMarketCount(id string, n int) {
	s.updateEvent("update_event_market_count", id, setMarketCount(n))
}

// UpdateEventServing sets which participant is serving.
func (s *ListStore) UpdateEventServing(id string, side model.ServingSide) {
	s.updateEvent("update_event_serving", id, setServing(side))
}

// Reset clears every index and publishes an empty list.
func (s *ListStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reg.Clear()
	s.events.Set(nil)
	s.metrics.Entities(modeList, 0, 0, 0)
	s.metrics.Mutation(modeList, "reset", metrics.ResultApplied)
	s.logger.Info("list store reset")
}

// SubscribeEvents streams the ordered list of all events. A nil list means
// nothing has been stored yet.
func (s *ListStore) SubscribeEvents() *broadcast.Subscription[[]model.Event] {
	s.metrics.Subscription(modeList, "events")
	return s.events.Subscribe()
}

// SubscribeEvent streams one event. Reports false if the id is unknown.
func (s *ListStore) SubscribeEvent(id string) (*broadcast.Subscription[model.Event], bool) {
	s.mu.Lock()
	cell, ok := s.reg.Event(id)
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.metrics.Subscription(modeList, "event")
	return cell.Subscribe(), true
}

// SubscribeMarket streams one market. Reports false if the id is unknown.
func (s *ListStore) SubscribeMarket(id string) (*broadcast.Subscription[model.Market], bool) {
	s.mu.Lock()
	cell, ok := s.reg.Market(id)
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.metrics.Subscription(modeList, "market")
	return cell.Subscribe(), true
}

// SubscribeOutcome streams one outcome. Reports false if the id is unknown.
func (s *ListStore) SubscribeOutcome(id string) (*broadcast.Subscription[model.Outcome], bool) {
	s.mu.Lock()
	cell, ok := s.reg.Outcome(id)
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.metrics.Subscription(modeList, "outcome")
	return cell.Subscribe(), true
}

// Events returns the last published list.
func (s *ListStore) Events() []model.Event {
	return s.events.Get()
}

// Event returns the current value of one event.
func (s *ListStore) Event(id string) (model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, ok := s.reg.Event(id)
	if !ok {
		return model.Event{}, false
	}
	return cell.Get(), true
}

// Market returns the current value of one market.
func (s *ListStore) Market(id string) (model.Market, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, ok := s.reg.Market(id)
	if !ok {
		return model.Market{}, false
	}
	return cell.Get(), true
}

// Outcome returns the current value of one outcome.
func (s *ListStore) Outcome(id string) (model.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, ok := s.reg.Outcome(id)
	if !ok {
		return model.Outcome{}, false
	}
	return cell.Get(), true
}

// Counts returns the number of indexed events, markets and outcomes.
func (s *ListStore) Counts() (events, markets, outcomes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Counts()
}

func (s *ListStore) storeEventsLocked(events []model.Event) {
	for _, e := range events {
		s.reg.UpsertEvent(e)
	}
	s.publishLocked()
}

// publishLocked republishes the aggregate list from the registry.
func (s *ListStore) publishLocked() {
	s.events.Set(s.reg.EventValues())
	events, markets, outcomes := s.reg.Counts()
	s.metrics.Entities(modeList, events, markets, outcomes)
}

// reconcileLocked rebuilds the event's markets from the registry and
// republishes the list. Markets of a removed event have nothing to rebuild.
func (s *ListStore) reconcileLocked(eventID string) {
	ec, ok := s.reg.Event(eventID)
	if !ok {
		return
	}
	s.reg.ReconcileEvent(eventID, ec.Get().MarketIDs())
	s.publishLocked()
}

func (s *ListStore) updateOutcomeLocked(op, id string, fn func(model.Outcome) (model.Outcome, bool)) {
	cell, ok := s.reg.Outcome(id)
	if !ok {
		s.unknown(op, id)
		return
	}
	changed := cell.Update(fn)
	if changed {
		mid := cell.Get().MarketID
		s.reg.RefreshMarket(mid)
		if mc, ok := s.reg.Market(mid); ok {
			s.reconcileLocked(mc.Get().EventID)
		}
	}
	s.record(op, changed)
}

func (s *ListStore) updateMarketLocked(op, id string, tradable bool) {
	cell, ok := s.reg.Market(id)
	if !ok {
		s.unknown(op, id)
		return
	}
	changed := cell.Update(setMarketTradable(tradable))
	if changed {
		s.reconcileLocked(cell.Get().EventID)
	}
	s.record(op, changed)
}

func (s *ListStore) updateEvent(op, id string, fn func(model.Event) (model.Event, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, ok := s.reg.Event(id)
	if !ok {
		s.unknown(op, id)
		return
	}
	changed := cell.Update(fn)
	if changed {
		s.publishLocked()
	}
	s.record(op, changed)
}

func (s *ListStore) record(op string, changed bool) {
	if changed {
		s.metrics.Mutation(modeList, op, metrics.ResultApplied)
		return
	}
	s.metrics.Mutation(modeList, op, metrics.ResultUnchanged)
}

func (s *ListStore) unknown(op, id string) {
	s.metrics.Mutation(modeList, op, metrics.ResultUnknown)
	s.logger.Debug("ignoring update for unknown id", "op", op, "id", id)
}
