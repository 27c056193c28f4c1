// Package poller implements the Snapshot Poller component.
//
// The Snapshot Poller:
//   - Fetches full event snapshots from the provider REST API on an interval
//   - Polls every configured competition (list mode) or event (detail mode)
//   - Bounds in-flight requests with a semaphore
//   - Hands converted events to a SnapshotHandler, normally a store
//
// Snapshots repair any drift left by dropped push updates; the stores merge
// them idempotently.
package poller
