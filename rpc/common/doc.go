// Package common contains the core data structures shared across the RPC
// system: the Message protocol carrying the three lookup operations across
// shard boundaries, the server and client configuration structures, and the
// logging setup used by the RPC components.
package common
