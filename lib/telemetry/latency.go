package telemetry

import "time"

// ScopeLatencyRecorder measures the latency of a scope. Create it at the top
// of the scope and call Done (usually via defer) when the scope ends. The
// elapsed time is recorded exactly once, further Done calls are ignored.
type ScopeLatencyRecorder struct {
	name     string
	recorder IMetricsRecorder
	start    time.Time
	done     bool
}

// NewScopeLatencyRecorder starts measuring the named scope.
func NewScopeLatencyRecorder(name string, recorder IMetricsRecorder) *ScopeLatencyRecorder {
	return &ScopeLatencyRecorder{
		name:     name,
		recorder: recorder,
		start:    time.Now(),
	}
}

// Done stops the measurement and records the latency sample.
func (r *ScopeLatencyRecorder) Done() {
	if r.done {
		return
	}
	r.done = true
	r.recorder.RecordLatency(r.name, time.Since(r.start))
}
