// Package store holds the aggregate odds stores.
//
// ListStore caches many events for overview screens and publishes one
// aggregate stream of all events next to per-entity streams. DetailStore
// caches exactly one event and publishes its whole-event stream through a
// Coalescer so bursts of market and outcome updates reach subscribers at most
// once per window.
//
// Store methods never return errors. Updates for unknown ids are ignored.
package store
