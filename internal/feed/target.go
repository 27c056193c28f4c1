package feed

import (
	"github.com/rickgao/odds-store/internal/model"
)

// Sink is the mutator surface shared by both store modes.
type Sink interface {
	UpdateOutcomeOdd(id, numerator, denominator string)
	UpdateOutcomeTradability(id string, tradable bool)
	UpdateMarketTradability(id string, tradable bool)
	EnableMarket(id string)
	RemoveMarket(id string)
	UpdateEventStatus(id, code string)
	UpdateEventTime(id, matchTime string)
	UpdateEventScore(id string, home, away *int)
	UpdateEventDetailedScore(id string, score model.Score)
	UpdateEventMarketCount(id string, n int)
	UpdateEventServing(id string, side model.ServingSide)
}

// ListSink is satisfied by *store.ListStore.
type ListSink interface {
	Sink
	StoreEvents(events []model.Event)
	AddEvent(e model.Event)
	RemoveEvent(id string)
	AddMarket(eventID string, m model.Market)
}

// DetailSink is satisfied by *store.DetailStore.
type DetailSink interface {
	Sink
	StoreEvent(e model.Event)
	AddMarket(m model.Market)
	Event() (model.Event, bool)
	Reset()
}

// Target applies updates to a store. Apply reports false when the store
// has no operation for the update.
type Target interface {
	Apply(u Update) bool
}

// TargetFunc is a function adapter for Target.
type TargetFunc func(Update) bool

func (f TargetFunc) Apply(u Update) bool {
	return f(u)
}

// ListTarget applies updates to a list-mode store.
func ListTarget(s ListSink) Target {
	return TargetFunc(func(u Update) bool {
		if applyCommon(s, u) {
			return true
		}
		switch u.Op {
		case OpEvents:
			s.StoreEvents(u.Events)
		case OpEvent:
			s.StoreEvents([]model.Event{u.Event})
		case OpAddEvent:
			s.AddEvent(u.Event)
		case OpRemoveEvent:
			s.RemoveEvent(u.EventID)
		case OpAddMarket:
			s.AddMarket(u.EventID, u.Market)
		default:
			return false
		}
		return true
	})
}

// DetailTarget applies updates to a detail-mode store. A full event
// replaces the tracked one; removing the tracked event resets the store.
// Markets added under another event are dropped.
// Event lists have no detail-mode meaning.
func DetailTarget(s DetailSink) Target {
	return TargetFunc(func(u Update) bool {
		if applyCommon(s, u) {
			return true
		}
		switch u.Op {
		case OpEvent:
			s.StoreEvent(u.Event)
		case OpAddMarket:
			if e, ok := s.Event(); ok && (u.EventID == "" || u.EventID == e.ID) {
				s.AddMarket(u.Market)
			}
		case OpRemoveEvent:
			if e, ok := s.Event(); ok && e.ID == u.EventID {
				s.Reset()
			}
		default:
			return false
		}
		return true
	})
}

// applyCommon dispatches the operations both modes share.
func applyCommon(s Sink, u Update) bool {
	switch u.Op {
	case OpOutcomeOdd:
		s.UpdateOutcomeOdd(u.OutcomeID, u.Numerator, u.Denominator)
	case OpOutcomeTradability:
		s.UpdateOutcomeTradability(u.OutcomeID, u.Tradable)
	case OpMarketTradability:
		s.UpdateMarketTradability(u.MarketID, u.Tradable)
	case OpEnableMarket:
		s.EnableMarket(u.MarketID)
	case OpRemoveMarket:
		s.RemoveMarket(u.MarketID)
	case OpStatus:
		s.UpdateEventStatus(u.EventID, u.Status)
	case OpMatchTime:
		s.UpdateEventTime(u.EventID, u.MatchTime)
	case OpScore:
		s.UpdateEventScore(u.EventID, u.Home, u.Away)
	case OpDetailedScore:
		s.UpdateEventDetailedScore(u.EventID, u.Score)
	case OpMarketCount:
		s.UpdateEventMarketCount(u.EventID, u.Count)
	case OpServing:
		s.UpdateEventServing(u.EventID, u.Serving)
	default:
		return false
	}
	return true
}
