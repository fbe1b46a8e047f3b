package telemetry

import "time"

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IMetricsRecorder is the narrow metrics contract consumed by the serving
// path. Only two operations are needed: incrementing a named event counter
// and recording a named latency sample. Concrete backends (VictoriaMetrics,
// no-op for tests) implement this interface.
type IMetricsRecorder interface {
	// IncrementEventCounter increments the counter with the given name by one.
	IncrementEventCounter(name string)
	// RecordLatency records a single latency sample for the given name.
	RecordLatency(name string, d time.Duration)
}

// --------------------------------------------------------------------------
// Well-Known Metric Names
// --------------------------------------------------------------------------

const (
	// MetricCacheKeyHit is incremented when at least one key of a request
	// group resolved to a value.
	MetricCacheKeyHit = "cache_key_hit"
	// MetricCacheKeyMiss is incremented when no key of a request group
	// resolved to a value.
	MetricCacheKeyMiss = "cache_key_miss"
	// MetricKeySetNotFound is incremented for every key whose value set
	// turned out to be empty during a set lookup.
	MetricKeySetNotFound = "keyset_not_found"
	// MetricLocalRunQuery is the latency series for local query execution.
	MetricLocalRunQuery = "local_run_query"
)
