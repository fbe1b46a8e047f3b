package telemetry

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// NewVictoriaMetricsRecorder creates a recorder backed by the process-global
// VictoriaMetrics registry. Counters are exposed as
// skv_events_total{event="<name>"} and latencies as
// skv_latency_seconds{op="<name>"} summaries.
func NewVictoriaMetricsRecorder() IMetricsRecorder {
	return &victoriaRecorderImpl{}
}

type victoriaRecorderImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see telemetry.IMetricsRecorder)
// --------------------------------------------------------------------------

func (r *victoriaRecorderImpl) IncrementEventCounter(name string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`skv_events_total{event=%q}`, name)).Inc()
}

func (r *victoriaRecorderImpl) RecordLatency(name string, d time.Duration) {
	metrics.GetOrCreateSummary(fmt.Sprintf(`skv_latency_seconds{op=%q}`, name)).Update(d.Seconds())
}
