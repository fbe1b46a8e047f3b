package server

import (
	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Message and a lookup as parameters.
	// It returns a Message as a response
	// If an error occurs, it should be set in the response
	Handle(req *common.Message, l lookup.ILookup) (resp *common.Message)
}
