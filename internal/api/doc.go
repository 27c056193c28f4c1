// Package api provides the odds provider's REST client and wire types.
//
// The same wire types (EventWire, MarketWire, OutcomeWire) describe entities
// in REST snapshots and inside streaming content changes, so the feed decoder
// reuses them. ToModel methods convert them to internal/model values.
//
// Endpoints:
//   - GET /events?competition={id}&cursor={c}   paginated event snapshots
//   - GET /events/{id}                          one event with all markets
//   - GET /markets/{id}                         one market
package api
