// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Store mutations by operation and result (applied, unchanged, unknown id)
//   - Indexed entity counts per store mode
//   - Subscriptions opened per entity kind
//   - Detail-mode coalescing (submitted vs delivered)
//   - Feed messages decoded, ignored and rejected
//
// All methods are safe on a nil *Metrics, so components can run unobserved.
package metrics
