// Package local implements lookup.ILookup against the in-process cache.
//
// Point and set lookups translate cache results into per-key outcomes, with
// absent keys reported as not-found rather than failing the call. RunQuery
// drives the full query pipeline: parse, extract the leaf key set, fetch all
// value sets from the cache in a single batched call, then evaluate. Query
// execution latency is recorded on the request's metrics context, and empty
// value sets increment the keyset-not-found counter.
package local
