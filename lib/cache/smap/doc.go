// Package smap implements the cache interfaces on top of an atomically
// swapped snapshot map.
//
// The full cache contents live in a single immutable snapshot value that is
// reachable through an atomic pointer. Readers load the pointer exactly once
// per call, which gives them a consistent view across every key of the call
// without taking any lock. A set-lookup view additionally materializes the
// requested sets out of that snapshot, so it can be handed around after the
// call returns.
//
// Writers are serialized by a mutex. A mutation clones the current snapshot,
// applies the change to the clone and publishes the clone with one atomic
// store. In-flight readers keep the snapshot they already hold.
//
// Every mutation carries a logical commit timestamp. A mutation that is not
// newer than the state it targets is dropped, and deletions leave tombstones
// until RemoveDeletedKeys garbage-collects them. This makes replaying the
// ingestion update stream idempotent regardless of delivery order.
//
// Cloning the whole snapshot per mutation trades write throughput for a
// wait-free read path. The ingestion pipeline batches its updates, so writes
// are rare compared to the read rate this cache is built for.
package smap
