// Package server implements the RPC server for the key-value serving system.
// It provides an adapter for handling lookup RPC requests, along with the core
// server implementation that manages shards and request routing.
//
// The package focuses on:
//   - Server-side RPC request handling for lookup operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Per-shard caches served through local lookups
//   - Optional seeding of shard caches from JSON snapshot files
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a lookup.ILookup.
//
//   - NewLookupServerAdapter: Factory function creating an adapter for lookup
//     operations, translating RPC requests to lookup.ILookup method calls.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100},
//	    {ShardID: 200, DataFile: "/data/shard-200.json"},
//	  },
//	  Endpoint: "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Each shard owns an isolated cache, so a single server can host several
// disjoint data sets and route requests between them by shard ID.
package server
