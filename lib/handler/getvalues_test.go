package handler

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/signalserve/skv/lib/cache/smap"
	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/lib/lookup/local"
	"github.com/signalserve/skv/lib/reqctx"
	"github.com/signalserve/skv/lib/telemetry"
)

// countingMetrics captures counter increments by name.
type countingMetrics struct {
	mu       sync.Mutex
	counters map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counters: map[string]int{}}
}

func (m *countingMetrics) IncrementEventCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

func (m *countingMetrics) RecordLatency(string, time.Duration) {}

func (m *countingMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

func newTestHandler(metrics telemetry.IMetricsRecorder) *Handler {
	c := smap.New()
	c.UpdateKeyValue("k1", "v1", 1)
	c.UpdateKeyValue("json-key", `{"n":1}`, 1)
	c.UpdateKeyValue("url1", "creative-a", 1)
	c.UpdateKeyValueSet("a", []string{"x", "y"}, 1)
	c.UpdateKeyValueSet("b", []string{"y", "z"}, 1)
	return New(local.NewLocalLookup(c), metrics, Config{}, nil)
}

func TestGetValuesPointLookup(t *testing.T) {
	metrics := newCountingMetrics()
	h := newTestHandler(metrics)

	resp, err := h.GetValues("req-1", &GetValuesRequest{Keys: []string{"k1", "k2"}})
	if err != nil {
		t.Fatalf("GetValues failed: %v", err)
	}

	want := map[string]SingleLookupResult{
		"k1": {Value: json.RawMessage(`"v1"`)},
		"k2": {Status: &Status{Code: StatusCodeNotFound, Message: "Key not found"}},
	}
	if diff := cmp.Diff(want, resp.Keys); diff != "" {
		t.Errorf("unexpected keys group (-want +got):\n%s", diff)
	}

	// At least one key resolved, so the group counts as a hit
	if got := metrics.count(telemetry.MetricCacheKeyHit); got != 1 {
		t.Errorf("expected 1 hit increment, got %d", got)
	}
	if got := metrics.count(telemetry.MetricCacheKeyMiss); got != 0 {
		t.Errorf("expected 0 miss increments, got %d", got)
	}
}

func TestGetValuesAllKeysMissing(t *testing.T) {
	metrics := newCountingMetrics()
	h := newTestHandler(metrics)

	resp, err := h.GetValues("req-2", &GetValuesRequest{Keys: []string{"nope-1", "nope-2"}})
	if err != nil {
		t.Fatalf("GetValues failed: %v", err)
	}

	for key, result := range resp.Keys {
		if result.Status == nil || result.Status.Code != StatusCodeNotFound {
			t.Errorf("expected not-found status for %q, got %+v", key, result)
		}
	}
	if got := metrics.count(telemetry.MetricCacheKeyMiss); got != 1 {
		t.Errorf("expected 1 miss increment, got %d", got)
	}
	if got := metrics.count(telemetry.MetricCacheKeyHit); got != 0 {
		t.Errorf("expected 0 hit increments, got %d", got)
	}
}

func TestGetValuesStructuredDecode(t *testing.T) {
	h := newTestHandler(newCountingMetrics())

	resp, err := h.GetValues("req-3", &GetValuesRequest{Keys: []string{"json-key", "k1"}})
	if err != nil {
		t.Fatalf("GetValues failed: %v", err)
	}

	// Valid JSON passes through structurally
	if got := string(resp.Keys["json-key"].Value); got != `{"n":1}` {
		t.Errorf("expected structured value, got %s", got)
	}
	// Non-JSON falls back to an opaque JSON string
	if got := string(resp.Keys["k1"].Value); got != `"v1"` {
		t.Errorf("expected quoted opaque value, got %s", got)
	}
}

func TestGetValuesGroupsAreIndependent(t *testing.T) {
	h := newTestHandler(newCountingMetrics())

	resp, err := h.GetValues("req-4", &GetValuesRequest{
		Keys:       []string{"k1"},
		RenderURLs: []string{"url1"},
	})
	if err != nil {
		t.Fatalf("GetValues failed: %v", err)
	}

	if len(resp.Keys) != 1 || len(resp.RenderURLs) != 1 {
		t.Errorf("expected both groups populated, got %+v", resp)
	}
	// Groups that were empty in the request stay empty in the response
	if resp.InternalKeys != nil || resp.AdComponentRenderURLs != nil {
		t.Errorf("expected untouched groups to stay nil, got %+v", resp)
	}
}

func TestGetValuesSplitsCommaSeparatedKeys(t *testing.T) {
	h := newTestHandler(newCountingMetrics())

	resp, err := h.GetValues("req-5", &GetValuesRequest{Keys: []string{"k1,k2", "k1"}})
	if err != nil {
		t.Fatalf("GetValues failed: %v", err)
	}

	if len(resp.Keys) != 2 {
		t.Errorf("expected k1 and k2 after splitting, got %v", resp.Keys)
	}
	if _, ok := resp.Keys["k1"]; !ok {
		t.Error("missing result for k1")
	}
	if _, ok := resp.Keys["k2"]; !ok {
		t.Error("missing result for k2")
	}
}

func TestRunQueryPassthrough(t *testing.T) {
	h := newTestHandler(newCountingMetrics())

	elements, err := h.RunQuery("req-6", "a INTERSECTION b")
	if err != nil {
		t.Fatalf("RunQuery failed: %v", err)
	}
	if diff := cmp.Diff([]string{"y"}, elements); diff != "" {
		t.Errorf("unexpected elements (-want +got):\n%s", diff)
	}

	if _, err := h.RunQuery("req-7", "a UNION"); err == nil {
		t.Error("expected query failure to surface call-level")
	}
}

// failingLookup fails every operation; used to exercise group independence.
type failingLookup struct{}

func (f *failingLookup) GetKeyValues(*reqctx.Context, []string) (*lookup.Response, error) {
	return nil, errors.New("backend unavailable")
}

func (f *failingLookup) GetKeyValueSet(*reqctx.Context, []string) (*lookup.Response, error) {
	return nil, errors.New("backend unavailable")
}

func (f *failingLookup) RunQuery(*reqctx.Context, string) (*lookup.QueryResponse, error) {
	return nil, errors.New("backend unavailable")
}

func TestGetValuesFailsOnlyWhenAllGroupsFail(t *testing.T) {
	h := New(&failingLookup{}, telemetry.NewNoopRecorder(), Config{}, nil)

	if _, err := h.GetValues("req-8", &GetValuesRequest{Keys: []string{"k"}}); err == nil {
		t.Error("expected error when every group fails")
	}
}

// legacyAdapterStub records that it was called.
type legacyAdapterStub struct {
	called bool
}

func (a *legacyAdapterStub) CallLegacyHandler(*reqctx.Context, *GetValuesRequest) (*GetValuesResponse, error) {
	a.called = true
	return &GetValuesResponse{}, nil
}

func TestLegacyAdapterPath(t *testing.T) {
	adapter := &legacyAdapterStub{}
	c := smap.New()
	h := New(local.NewLocalLookup(c), telemetry.NewNoopRecorder(), Config{UseLegacyAdapter: true}, adapter)

	if _, err := h.GetValues("req-9", &GetValuesRequest{Keys: []string{"k"}}); err != nil {
		t.Fatalf("GetValues failed: %v", err)
	}
	if !adapter.called {
		t.Error("expected the legacy adapter to handle the request")
	}
}
