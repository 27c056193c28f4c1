// Package model defines the entity types held by the odds store.
//
// Conventions:
//   - IDs: provider strings, stable for the lifetime of the entity
//   - Odds: fractional (numerator/denominator), decimal form derived on demand
//   - Values handed to subscribers are read-only; mutate a Clone
package model
