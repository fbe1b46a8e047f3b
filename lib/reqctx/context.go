package reqctx

import (
	"github.com/google/uuid"
	"github.com/signalserve/skv/lib/telemetry"
)

// Context ties the metrics recorder and a request identifier to a single
// inbound request. One Context is created at request entry, handed by pointer
// into every downstream call, and dropped when the request completes. It is
// never shared across requests.
type Context struct {
	requestID string
	metrics   telemetry.IMetricsRecorder
}

// New creates a request context with a freshly generated request ID.
func New(metrics telemetry.IMetricsRecorder) *Context {
	return WithRequestID(uuid.NewString(), metrics)
}

// WithRequestID creates a request context with a caller-supplied request ID,
// e.g. one propagated from an upstream service. An empty ID is replaced with
// a generated one.
func WithRequestID(requestID string, metrics telemetry.IMetricsRecorder) *Context {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopRecorder()
	}
	return &Context{
		requestID: requestID,
		metrics:   metrics,
	}
}

// RequestID returns the identifier of the request this context belongs to.
func (c *Context) RequestID() string {
	return c.requestID
}

// Metrics returns the metrics recorder scoped to this request.
func (c *Context) Metrics() telemetry.IMetricsRecorder {
	return c.metrics
}
