package reqctx

import (
	"testing"

	"github.com/signalserve/skv/lib/telemetry"
)

func TestNewGeneratesID(t *testing.T) {
	a := New(telemetry.NewNoopRecorder())
	b := New(telemetry.NewNoopRecorder())

	if a.RequestID() == "" {
		t.Fatal("expected a generated request ID")
	}
	if a.RequestID() == b.RequestID() {
		t.Errorf("expected unique request IDs, both are %q", a.RequestID())
	}
}

func TestWithRequestID(t *testing.T) {
	c := WithRequestID("upstream-42", telemetry.NewNoopRecorder())
	if c.RequestID() != "upstream-42" {
		t.Errorf("expected propagated request ID, got %q", c.RequestID())
	}

	// Empty IDs must not leak through, a fresh one is generated instead
	c = WithRequestID("", telemetry.NewNoopRecorder())
	if c.RequestID() == "" {
		t.Error("expected generated request ID for empty input")
	}
}

func TestNilMetricsFallsBackToNoop(t *testing.T) {
	c := WithRequestID("x", nil)
	if c.Metrics() == nil {
		t.Fatal("expected a usable metrics recorder")
	}
	// Must not panic
	c.Metrics().IncrementEventCounter("test")
}
