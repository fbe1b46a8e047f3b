// Package telemetry defines the narrow metrics contract used by the serving
// path and its concrete backends.
//
// The serving components never talk to a metrics library directly. They only
// consume the IMetricsRecorder interface, which supports exactly two
// operations: incrementing a named event counter and recording a named
// latency sample. This keeps the metrics backend swappable and makes the
// components trivially testable with a capturing or no-op recorder.
//
// The default backend is VictoriaMetrics (NewVictoriaMetricsRecorder), which
// registers counters and summaries in the process-global registry so they can
// be exposed on a /metrics endpoint by the embedding server.
package telemetry
