// Package lookup defines the three-operation lookup contract that makes
// horizontal sharding possible: point lookups, value-set lookups and
// set-algebra queries, identical in semantics whether they are answered by
// the in-process cache (lookup/local) or forwarded to another partition over
// RPC (rpc/client).
package lookup
