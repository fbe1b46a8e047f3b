// Package cmd implements the command-line interface for the skv key-value
// serving engine. It provides a hierarchical command structure with operations
// for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for lookup operations (get, getset, query) plus a
//     performance testing tool
//   - serve: Commands for starting and configuring the skv server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See skv -help for a list of all commands.
package cmd
