// Package broadcast implements the per-entity publisher cell.
//
// A Cell holds the latest value of one entity. Every Subscription first
// receives the value current at subscribe time, then every subsequent Set,
// in the order the writes were applied to that cell. Delivery never blocks
// the writer: each subscription owns a growable queue, and a slow reader
// loses its oldest queued values before it loses the newest one.
package broadcast
