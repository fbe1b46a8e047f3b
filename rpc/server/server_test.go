package server

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signalserve/skv/lib/cache/smap"
	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/lib/lookup/local"
	"github.com/signalserve/skv/lib/reqctx"
	"github.com/signalserve/skv/lib/telemetry"
	"github.com/signalserve/skv/rpc/client"
	"github.com/signalserve/skv/rpc/common"
	"github.com/signalserve/skv/rpc/serializer"
	"github.com/signalserve/skv/rpc/transport"
)

// loopbackTransport wires client sends directly into the server handler,
// bypassing the network. It implements both transport interfaces.
type loopbackTransport struct {
	handler transport.ServerHandleFunc
}

func (t *loopbackTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *loopbackTransport) Listen(common.ServerConfig) error {
	return nil
}

func (t *loopbackTransport) Connect(common.ClientConfig) error {
	return nil
}

func (t *loopbackTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	if t.handler == nil {
		return nil, errors.New("no handler registered")
	}
	return t.handler(shardId, req), nil
}

func (t *loopbackTransport) Close() error {
	return nil
}

// testRecords is the data set every shard in these tests serves
func testRecords() []dataFileRecord {
	return []dataFileRecord{
		{Key: "bid-1", Value: "signal-a", LogicalCommitTime: 1},
		{Key: "bid-2", Value: `{"n":1}`, LogicalCommitTime: 1},
		{Key: "seg-a", ValueSet: []string{"x", "y"}, LogicalCommitTime: 1},
		{Key: "seg-b", ValueSet: []string{"y", "z"}, LogicalCommitTime: 1},
	}
}

// writeDataFile marshals the test records into a JSON snapshot file
func writeDataFile(t *testing.T) string {
	t.Helper()

	data, err := json.Marshal(testRecords())
	if err != nil {
		t.Fatalf("failed to marshal records: %v", err)
	}

	path := filepath.Join(t.TempDir(), "shard.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write data file: %v", err)
	}
	return path
}

// newLoopbackLookup starts a server over a loopback transport and returns a
// remote lookup client connected to its single shard
func newLoopbackLookup(t *testing.T, shardID uint64) lookup.ILookup {
	t.Helper()

	config := common.ServerConfig{
		Shards:        []common.ServerShard{{ShardID: 1, DataFile: writeDataFile(t)}},
		TimeoutSecond: 5,
		Endpoint:      "loopback",
		LogLevel:      "error",
	}

	tr := &loopbackTransport{}
	srv := NewRPCServer(config, tr, serializer.NewBinarySerializer())
	if err := srv.Serve(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	clientConfig := common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:  []string{"loopback"},
			RetryCount: 1,
		},
	}
	remote, err := client.NewRPCLookup(shardID, clientConfig, tr, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("failed to create remote lookup: %v", err)
	}
	return remote
}

// newLocalLookup builds a local lookup over the same records the server serves
func newLocalLookup() lookup.ILookup {
	c := smap.New()
	for _, record := range testRecords() {
		if record.ValueSet != nil {
			c.UpdateKeyValueSet(record.Key, record.ValueSet, record.LogicalCommitTime)
		} else {
			c.UpdateKeyValue(record.Key, record.Value, record.LogicalCommitTime)
		}
	}
	return local.NewLocalLookup(c)
}

// TestRemoteLocalEquivalence verifies that a lookup dispatched through the
// RPC stack returns the same results as the same lookup served locally
func TestRemoteLocalEquivalence(t *testing.T) {
	remote := newLoopbackLookup(t, 1)
	localLookup := newLocalLookup()
	rc := reqctx.New(telemetry.NewNoopRecorder())

	t.Run("GetKeyValues", func(t *testing.T) {
		keys := []string{"bid-1", "bid-2", "missing"}

		want, err := localLookup.GetKeyValues(rc, keys)
		if err != nil {
			t.Fatalf("local lookup failed: %v", err)
		}
		got, err := remote.GetKeyValues(rc, keys)
		if err != nil {
			t.Fatalf("remote lookup failed: %v", err)
		}

		if diff := cmp.Diff(want.KVPairs, got.KVPairs); diff != "" {
			t.Errorf("remote result differs from local (-local +remote):\n%s", diff)
		}
	})

	t.Run("GetKeyValueSet", func(t *testing.T) {
		keys := []string{"seg-a", "seg-b", "missing"}

		want, err := localLookup.GetKeyValueSet(rc, keys)
		if err != nil {
			t.Fatalf("local lookup failed: %v", err)
		}
		got, err := remote.GetKeyValueSet(rc, keys)
		if err != nil {
			t.Fatalf("remote lookup failed: %v", err)
		}

		if diff := cmp.Diff(want.KVPairs, got.KVPairs); diff != "" {
			t.Errorf("remote result differs from local (-local +remote):\n%s", diff)
		}
	})

	t.Run("RunQuery", func(t *testing.T) {
		// The hyphenated keys must be quoted so the '-' is not read as the
		// difference operator
		queries := []string{
			`"seg-a" UNION "seg-b"`,
			`"seg-a" INTERSECTION "seg-b"`,
			`"seg-a" DIFFERENCE "seg-b"`,
			`("seg-a" UNION "seg-b") - "seg-a"`,
		}

		for _, query := range queries {
			want, err := localLookup.RunQuery(rc, query)
			if err != nil {
				t.Fatalf("local query %q failed: %v", query, err)
			}
			got, err := remote.RunQuery(rc, query)
			if err != nil {
				t.Fatalf("remote query %q failed: %v", query, err)
			}

			if diff := cmp.Diff(want.Elements, got.Elements); diff != "" {
				t.Errorf("query %q differs (-local +remote):\n%s", query, diff)
			}
		}
	})
}

// TestRemoteQueryErrorPropagates verifies that query parse failures surface
// on the client side as call-level errors
func TestRemoteQueryErrorPropagates(t *testing.T) {
	remote := newLoopbackLookup(t, 1)
	rc := reqctx.New(telemetry.NewNoopRecorder())

	if _, err := remote.RunQuery(rc, `"seg-a" UNION (`); err == nil {
		t.Error("expected error for malformed query")
	}
}

// TestUnknownShard verifies that requests for a shard the server does not
// host fail with an error
func TestUnknownShard(t *testing.T) {
	remote := newLoopbackLookup(t, 99)
	rc := reqctx.New(telemetry.NewNoopRecorder())

	if _, err := remote.GetKeyValues(rc, []string{"bid-1"}); err == nil {
		t.Error("expected error for unknown shard")
	}
}

// TestAdapterRejectsUnsupportedMessageType exercises the adapter dispatch directly
func TestAdapterRejectsUnsupportedMessageType(t *testing.T) {
	adapter := NewLookupServerAdapter(telemetry.NewNoopRecorder())

	resp := adapter.Handle(&common.Message{MsgType: common.MsgTSuccess}, newLocalLookup())
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected error response, got %s", resp.MsgType)
	}
}

// TestAdapterRejectsNilLookup verifies the nil guard in the adapter
func TestAdapterRejectsNilLookup(t *testing.T) {
	adapter := NewLookupServerAdapter(telemetry.NewNoopRecorder())

	resp := adapter.Handle(&common.Message{MsgType: common.MsgTGetKeyValues}, nil)
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected error response, got %s", resp.MsgType)
	}
}

// TestLoadDataFile verifies data file parsing and error cases
func TestLoadDataFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		c := smap.New()
		count, err := loadDataFile(c, writeDataFile(t))
		if err != nil {
			t.Fatalf("loadDataFile failed: %v", err)
		}
		if count != len(testRecords()) {
			t.Errorf("expected %d records, got %d", len(testRecords()), count)
		}

		rc := reqctx.New(telemetry.NewNoopRecorder())
		pairs := c.GetKeyValuePairs(rc, []string{"bid-1"})
		if pairs["bid-1"] != "signal-a" {
			t.Errorf("expected seeded value, got %q", pairs["bid-1"])
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadDataFile(smap.New(), filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := loadDataFile(smap.New(), path); err == nil {
			t.Error("expected error for invalid json")
		}
	})

	t.Run("record without key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nokey.json")
		if err := os.WriteFile(path, []byte(`[{"value":"v","logical_commit_time":1}]`), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := loadDataFile(smap.New(), path); err == nil {
			t.Error("expected error for record without key")
		}
	})
}
