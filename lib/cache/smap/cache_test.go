package smap

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signalserve/skv/lib/reqctx"
	"github.com/signalserve/skv/lib/telemetry"
)

func testCtx() *reqctx.Context {
	return reqctx.New(telemetry.NewNoopRecorder())
}

func TestGetKeyValuePairsReturnsOnlyPresentKeys(t *testing.T) {
	c := New()
	c.UpdateKeyValue("k1", "v1", 1)
	c.UpdateKeyValue("k2", "v2", 1)

	got := c.GetKeyValuePairs(testCtx(), []string{"k1", "k3"})
	want := map[string]string{"k1": "v1"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestGetKeyValueSet(t *testing.T) {
	c := New()
	c.UpdateKeyValueSet("a", []string{"y", "x"}, 1)

	view := c.GetKeyValueSet(testCtx(), []string{"a", "missing"})

	if diff := cmp.Diff([]string{"x", "y"}, view.GetValueSet("a")); diff != "" {
		t.Errorf("unexpected set for a (-want +got):\n%s", diff)
	}
	if got := view.GetValueSet("missing"); len(got) != 0 {
		t.Errorf("expected empty set for missing key, got %v", got)
	}
	// Keys that were not part of the call also resolve to the empty set
	if got := view.GetValueSet("never-requested"); len(got) != 0 {
		t.Errorf("expected empty set for unrequested key, got %v", got)
	}
}

func TestStaleUpdatesAreIgnored(t *testing.T) {
	c := New()
	c.UpdateKeyValue("k", "new", 10)
	c.UpdateKeyValue("k", "old", 5)

	got := c.GetKeyValuePairs(testCtx(), []string{"k"})
	if got["k"] != "new" {
		t.Errorf("stale update must not overwrite, got %q", got["k"])
	}
}

func TestDeleteKeySuppressesOlderUpdates(t *testing.T) {
	c := New()
	c.UpdateKeyValue("k", "v", 1)
	c.DeleteKey("k", 5)

	// A replayed update from before the deletion must stay suppressed
	c.UpdateKeyValue("k", "replayed", 3)
	if got := c.GetKeyValuePairs(testCtx(), []string{"k"}); len(got) != 0 {
		t.Errorf("expected key to stay deleted, got %v", got)
	}

	// A genuinely newer update resurrects the key
	c.UpdateKeyValue("k", "v2", 7)
	got := c.GetKeyValuePairs(testCtx(), []string{"k"})
	if got["k"] != "v2" {
		t.Errorf("expected newer update to win, got %v", got)
	}
}

func TestDeleteValuesInSet(t *testing.T) {
	c := New()
	c.UpdateKeyValueSet("a", []string{"x", "y", "z"}, 1)
	c.DeleteValuesInSet("a", []string{"y"}, 2)

	view := c.GetKeyValueSet(testCtx(), []string{"a"})
	if diff := cmp.Diff([]string{"x", "z"}, view.GetValueSet("a")); diff != "" {
		t.Errorf("unexpected set (-want +got):\n%s", diff)
	}

	// A replayed insert older than the deletion is dropped
	c.UpdateKeyValueSet("a", []string{"y"}, 1)
	view = c.GetKeyValueSet(testCtx(), []string{"a"})
	if diff := cmp.Diff([]string{"x", "z"}, view.GetValueSet("a")); diff != "" {
		t.Errorf("deleted value resurrected by stale insert (-want +got):\n%s", diff)
	}
}

func TestRemoveDeletedKeys(t *testing.T) {
	c := New()
	c.UpdateKeyValue("k", "v", 1)
	c.DeleteKey("k", 5)
	c.RemoveDeletedKeys(5)

	// After garbage collection the tombstone is gone, so even an old update
	// lands again. This mirrors how the ingestion pipeline compacts state.
	c.UpdateKeyValue("k", "late", 3)
	got := c.GetKeyValuePairs(testCtx(), []string{"k"})
	if got["k"] != "late" {
		t.Errorf("expected update to land after tombstone GC, got %v", got)
	}
}

func TestSetViewSurvivesConcurrentUpdate(t *testing.T) {
	c := New()
	c.UpdateKeyValueSet("a", []string{"x", "y"}, 1)

	view := c.GetKeyValueSet(testCtx(), []string{"a"})

	// Published after the view was taken, must not be visible through it
	c.DeleteValuesInSet("a", []string{"x"}, 2)
	c.UpdateKeyValueSet("a", []string{"q"}, 3)

	if diff := cmp.Diff([]string{"x", "y"}, view.GetValueSet("a")); diff != "" {
		t.Errorf("view leaked a newer snapshot (-want +got):\n%s", diff)
	}
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	c := New()
	for i := 0; i < 100; i++ {
		c.UpdateKeyValue(fmt.Sprintf("key-%d", i), "v", 1)
	}

	stop := make(chan struct{})
	var writerWg sync.WaitGroup

	// One writer continuously publishing new snapshots
	writerWg.Add(1)
	go func() {
		defer writerWg.Done()
		for i := uint64(2); ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			c.UpdateKeyValue("key-0", "v", i)
			c.UpdateKeyValueSet("set-0", []string{"a", "b"}, i)
		}
	}()

	// Many readers checking they always see complete results
	var readerWg sync.WaitGroup
	for r := 0; r < 8; r++ {
		readerWg.Add(1)
		go func() {
			defer readerWg.Done()
			keys := make([]string, 0, 100)
			for i := 0; i < 100; i++ {
				keys = append(keys, fmt.Sprintf("key-%d", i))
			}
			sort.Strings(keys)
			for i := 0; i < 500; i++ {
				if got := c.GetKeyValuePairs(testCtx(), keys); len(got) != 100 {
					t.Errorf("torn read: got %d of 100 keys", len(got))
					return
				}
			}
		}()
	}

	readerWg.Wait()
	close(stop)
	writerWg.Wait()
}
