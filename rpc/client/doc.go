// Package client implements the RPC client for the key-value serving system.
// It provides an implementation of the lookup.ILookup interface that
// communicates with remote shard servers via RPC.
//
// The package focuses on:
//   - Transparent RPC access to lookup implementations
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCLookup: Factory function that creates a client implementing the
//     lookup.ILookup interface. This client forwards all operations to remote
//     servers via the configured transport layer, so callers cannot tell a
//     remote lookup from a local one.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:5000"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create lookup client
//	l, _ := client.NewRPCLookup(1, config, tcp.NewTCPClientTransport(), serializer)
//
//	// Use the lookup
//	rc := reqctx.New(metrics)
//	resp, _ := l.GetKeyValues(rc, []string{"mykey"})
//	elements, _ := l.RunQuery(rc, "segment_a UNION segment_b")
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client implementation is thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
