// Package cache defines the read and mutation contracts of the in-memory
// serving cache.
//
// The serving path only ever reads: point lookups (key to value) and set
// lookups (key to value set). Both are defined on the ICache interface and
// guarantee snapshot isolation, meaning all keys requested in one call are
// answered from the same consistent version of the data even while the
// ingestion pipeline publishes updates concurrently.
//
// Mutations are the business of the ingestion side and live on the
// IMutableCache interface. Every mutation carries a logical commit timestamp
// so that replayed or reordered update streams converge to the same state.
//
// The snapshot-map implementation of these interfaces is in the smap
// subpackage.
package cache
