package telemetry

import "time"

// NewNoopRecorder creates a recorder that discards all samples.
// Intended for tests and tooling that has no metrics backend.
func NewNoopRecorder() IMetricsRecorder {
	return &noopRecorderImpl{}
}

type noopRecorderImpl struct{}

func (r *noopRecorderImpl) IncrementEventCounter(string) {}

func (r *noopRecorderImpl) RecordLatency(string, time.Duration) {}
