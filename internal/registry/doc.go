// Package registry indexes event, market and outcome cells by id.
//
// Each index preserves insertion order, and overwriting an id keeps its
// position. The registry is the single owner of market and outcome state;
// an Event's Markets field is rebuilt from it, never the other way round.
//
// A Registry is not safe for concurrent use. The owning store serialises
// access; the cells it hands out are independently thread-safe.
package registry
