// Package unix implements Unix domain socket-based transport for the key-value
// serving system's RPC layer. It provides concrete implementations of the base
// package's connector interfaces optimized for local inter-process communication.
//
// This package builds on the base package's transport functionality, inheriting its
// performance optimizations including connection pooling, buffer reuse, and request
// routing. Unix sockets avoid the network stack entirely, making this transport the
// fastest option when client and server run on the same host.
//
// Key Components:
//
//   - clientConnector: Unix socket implementation of base.IClientConnector
//
//   - serverConnector: Unix socket implementation of base.IServerConnector
//
// The default server buffer size is set to 64 KB, which is sufficient for typical
// request/response sizes over local sockets.
package unix
