package server

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/signalserve/skv/lib/cache"
	"github.com/signalserve/skv/lib/cache/smap"
	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/lib/lookup/local"
	"github.com/signalserve/skv/lib/telemetry"
	"github.com/signalserve/skv/rpc/common"
	"github.com/signalserve/skv/rpc/serializer"
	"github.com/signalserve/skv/rpc/transport"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the cache backing the shard, the lookup serving reads from it
// and the adapter that handles requests for the lookup
type serverShard struct {
	Cache   cache.IMutableCache
	Lookup  lookup.ILookup
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPDefaultServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	// Create shards map
	shardMap := xsync.NewMapOf[uint64, serverShard]()

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		metrics:    telemetry.NewVictoriaMetricsRecorder(),
		shards:     shardMap,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	metrics    telemetry.IMetricsRecorder
	shards     *xsync.MapOf[uint64, serverShard]
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		// Case shard does not exist -> error
		if !ok {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     "shard not found",
			}
		} else {
			// Decode the request
			err := s.serializer.Deserialize(req, &msg)

			if err != nil {
				respMsg = common.Message{
					MsgType: common.MsgTError,
					Err:     fmt.Sprintf("failed to deserialize request: %s", err),
				}
			} else {
				// Let the adapter handle the request
				respMsg = *shard.Adapter.Handle(&msg, shard.Lookup)
			}
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to serialize response: %s", err),
			}
		}
		return val
	})
}

func (s *rpcServer) init() error {

	// Init logger
	common.InitLoggers(s.config)

	// CREATE SHARDS

	/*
		Note: A single RPC Server can host any number of shards. Each shard
		serves its own cache through a local lookup. The following loop creates
		all the shards and stores them for the RPC server.
	*/

	for _, shardConfig := range s.config.Shards {
		// Every shard gets its own cache and lookup
		shardCache := smap.New()

		// Optionally seed the cache from a data file
		if shardConfig.DataFile != "" {
			count, err := loadDataFile(shardCache, shardConfig.DataFile)
			if err != nil {
				return fmt.Errorf("failed to seed shard %d from %s: %w", shardConfig.ShardID, shardConfig.DataFile, err)
			}
			Logger.Infof("seeded shard %d with %d records from %s", shardConfig.ShardID, count, shardConfig.DataFile)
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Cache:   shardCache,
			Lookup:  local.NewLocalLookup(shardCache),
			Adapter: NewLookupServerAdapter(s.metrics),
		})
		Logger.Infof("created lookup shard %d", shardConfig.ShardID)
	}

	Logger.Infof("server setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// --------------------------------------------------------------------------
// Data file loading
// --------------------------------------------------------------------------

// dataFileRecord is a single mutation in a JSON snapshot file. A record with
// a ValueSet updates the set view, otherwise the scalar view.
type dataFileRecord struct {
	Key               string   `json:"key"`
	Value             string   `json:"value,omitempty"`
	ValueSet          []string `json:"value_set,omitempty"`
	LogicalCommitTime uint64   `json:"logical_commit_time"`
}

// loadDataFile applies all records from a JSON snapshot file to the cache
// and returns the number of applied records
func loadDataFile(c cache.IMutableCache, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var records []dataFileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("invalid data file: %w", err)
	}

	for _, record := range records {
		if record.Key == "" {
			return 0, fmt.Errorf("invalid data file: record without key")
		}
		if record.ValueSet != nil {
			c.UpdateKeyValueSet(record.Key, record.ValueSet, record.LogicalCommitTime)
		} else {
			c.UpdateKeyValue(record.Key, record.Value, record.LogicalCommitTime)
		}
	}

	return len(records), nil
}
