// Package reqctx provides the per-request context passed through the lookup
// and cache layers. It carries the request identifier (caller-supplied or
// uuid-generated) and the metrics recorder so that cost and latency can be
// attributed to the request that caused them.
package reqctx
