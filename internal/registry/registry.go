package registry

import (
	"github.com/rickgao/odds-store/internal/broadcast"
	"github.com/rickgao/odds-store/internal/model"
)

// Registry holds the three id → cell indices of one store.
type Registry struct {
	cellOpts []broadcast.Option

	events   *OrderedMap[string, *broadcast.Cell[model.Event]]
	markets  *OrderedMap[string, *broadcast.Cell[model.Market]]
	outcomes *OrderedMap[string, *broadcast.Cell[model.Outcome]]
}

// New creates an empty registry. opts apply to every cell it creates.
func New(opts ...broadcast.Option) *Registry {
	return &Registry{
		cellOpts: opts,
		events:   NewOrderedMap[string, *broadcast.Cell[model.Event]](),
		markets:  NewOrderedMap[string, *broadcast.Cell[model.Market]](),
		outcomes: NewOrderedMap[string, *broadcast.Cell[model.Outcome]](),
	}
}

// Event returns the cell for an event id.
func (r *Registry) Event(id string) (*broadcast.Cell[model.Event], bool) {
	return r.events.Get(id)
}

// Market returns the cell for a market id.
func (r *Registry) Market(id string) (*broadcast.Cell[model.Market], bool) {
	return r.markets.Get(id)
}

// Outcome returns the cell for an outcome id.
func (r *Registry) Outcome(id string) (*broadcast.Cell[model.Outcome], bool) {
	return r.outcomes.Get(id)
}

// Counts returns the size of each index.
func (r *Registry) Counts() (events, markets, outcomes int) {
	return r.events.Len(), r.markets.Len(), r.outcomes.Len()
}

// UpsertOutcome indexes o. An existing cell is overwritten in place and only
// notifies when the value actually differs.
func (r *Registry) UpsertOutcome(o model.Outcome) *broadcast.Cell[model.Outcome] {
	if cell, ok := r.outcomes.Get(o.ID); ok {
		cell.Update(func(cur model.Outcome) (model.Outcome, bool) {
			return o, cur != o
		})
		return cell
	}
	cell := broadcast.NewCell(o, r.cellOpts...)
	r.outcomes.Set(o.ID, cell)
	return cell
}

// UpsertMarket indexes m's outcomes, then m itself. The stored market
// carries the live outcome values; an existing cell only notifies on change.
func (r *Registry) UpsertMarket(m model.Market) *broadcast.Cell[model.Market] {
	m = m.Clone()
	for i := range m.Outcomes {
		m.Outcomes[i].MarketID = m.ID
		r.UpsertOutcome(m.Outcomes[i])
	}
	m = r.ComposeMarket(m)

	if cell, ok := r.markets.Get(m.ID); ok {
		cell.Update(func(cur model.Market) (model.Market, bool) {
			return m, !cur.Equal(m)
		})
		return cell
	}
	cell := broadcast.NewCell(m, r.cellOpts...)
	r.markets.Set(m.ID, cell)
	return cell
}

// UpsertEvent indexes e's markets and outcomes, then e itself with its
// Markets rebuilt from the registry.
func (r *Registry) UpsertEvent(e model.Event) *broadcast.Cell[model.Event] {
	e = e.Clone()
	for i := range e.Markets {
		e.Markets[i].EventID = e.ID
		r.UpsertMarket(e.Markets[i])
	}
	e.Markets = r.MarketValues(UniqueIDs(e.MarketIDs()))

	if cell, ok := r.events.Get(e.ID); ok {
		cell.Set(e)
		return cell
	}
	cell := broadcast.NewCell(e, r.cellOpts...)
	r.events.Set(e.ID, cell)
	return cell
}

// RemoveEvent drops the event from the index and retires its cell.
// Its markets and outcomes stay indexed.
func (r *Registry) RemoveEvent(id string) (model.Event, bool) {
	cell, ok := r.events.Delete(id)
	if !ok {
		return model.Event{}, false
	}
	cell.Retire()
	return cell.Get(), true
}

// RemoveMarket drops the market and its outcomes and retires their cells.
func (r *Registry) RemoveMarket(id string) (model.Market, bool) {
	cell, ok := r.markets.Delete(id)
	if !ok {
		return model.Market{}, false
	}
	cell.Retire()

	m := cell.Get()
	for _, oid := range m.OutcomeIDs() {
		if oc, ok := r.outcomes.Delete(oid); ok {
			oc.Retire()
		}
	}
	return m, true
}

// ComposeMarket returns a copy of m whose outcomes are replaced by the
// current values of their cells. Outcomes no longer indexed keep their value.
func (r *Registry) ComposeMarket(m model.Market) model.Market {
	m = m.Clone()
	for i, o := range m.Outcomes {
		if cell, ok := r.outcomes.Get(o.ID); ok {
			m.Outcomes[i] = cell.Get()
		}
	}
	return m
}

// MarketValues returns the current values of the indexed markets among ids,
// in the order given. Unknown ids are skipped.
func (r *Registry) MarketValues(ids []string) []model.Market {
	out := make([]model.Market, 0, len(ids))
	for _, id := range ids {
		if cell, ok := r.markets.Get(id); ok {
			out = append(out, r.ComposeMarket(cell.Get()))
		}
	}
	return out
}

// RefreshMarket re-sets the market cell so its outcomes reflect the live
// outcome cells. Reports false for an unknown id.
func (r *Registry) RefreshMarket(id string) bool {
	cell, ok := r.markets.Get(id)
	if !ok {
		return false
	}
	cell.Set(r.ComposeMarket(cell.Get()))
	return true
}

// ReconcileEvent rebuilds the event's Markets from the registry, keeping the
// given market order, and stores the result. Returns the new value.
func (r *Registry) ReconcileEvent(id string, marketIDs []string) (model.Event, bool) {
	cell, ok := r.events.Get(id)
	if !ok {
		return model.Event{}, false
	}
	e := cell.Get().Clone()
	e.Markets = r.MarketValues(marketIDs)
	cell.Set(e)
	return e, true
}

// EventValues returns the current value of every indexed event in insertion order.
func (r *Registry) EventValues() []model.Event {
	cells := r.events.Values()
	out := make([]model.Event, len(cells))
	for i, c := range cells {
		out[i] = c.Get()
	}
	return out
}

// EventIDs returns the indexed event ids in insertion order.
func (r *Registry) EventIDs() []string {
	return r.events.Keys()
}

// Retain drops every market and outcome that e does not carry and retires
// their cells. Cells of the ids e keeps stay in place, so their subscribers
// survive a full refresh. Returns the number of cells dropped.
func (r *Registry) Retain(e model.Event) int {
	markets := make(map[string]struct{}, len(e.Markets))
	outcomes := make(map[string]struct{})
	for _, m := range e.Markets {
		markets[m.ID] = struct{}{}
		for _, o := range m.Outcomes {
			outcomes[o.ID] = struct{}{}
		}
	}

	dropped := 0
	for _, id := range r.markets.Keys() {
		if _, keep := markets[id]; keep {
			continue
		}
		if c, ok := r.markets.Delete(id); ok {
			c.Retire()
			dropped++
		}
	}
	for _, id := range r.outcomes.Keys() {
		if _, keep := outcomes[id]; keep {
			continue
		}
		if c, ok := r.outcomes.Delete(id); ok {
			c.Retire()
			dropped++
		}
	}
	return dropped
}

// ClearMarkets drops every market and outcome and retires their cells.
func (r *Registry) ClearMarkets() {
	for _, c := range r.markets.Values() {
		c.Retire()
	}
	for _, c := range r.outcomes.Values() {
		c.Retire()
	}
	r.markets.Clear()
	r.outcomes.Clear()
}

// Clear drops all three indices and retires every cell.
func (r *Registry) Clear() {
	for _, c := range r.events.Values() {
		c.Retire()
	}
	r.events.Clear()
	r.ClearMarkets()
}

// UniqueIDs returns ids without duplicates, keeping first occurrences.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
