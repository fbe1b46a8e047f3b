package client

import (
	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/lib/reqctx"
	"github.com/signalserve/skv/rpc/common"
	"github.com/signalserve/skv/rpc/serializer"
	"github.com/signalserve/skv/rpc/transport"
)

// NewRPCLookup creates a new RPC lookup client
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a lookup.ILookup and an error
func NewRPCLookup(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (lookup.ILookup, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC lookup
	l := rpcLookup{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC lookup
	return &l, nil
}

type rpcLookup struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the lookup package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcLookup) GetKeyValues(rc *reqctx.Context, keys []string) (*lookup.Response, error) {
	req := common.NewGetKeyValuesRequest(rc.RequestID(), keys)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	return resultsToResponse(resp.Results), nil
}

func (i *rpcLookup) GetKeyValueSet(rc *reqctx.Context, keys []string) (*lookup.Response, error) {
	req := common.NewGetKeyValueSetRequest(rc.RequestID(), keys)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	return resultsToResponse(resp.Results), nil
}

func (i *rpcLookup) RunQuery(rc *reqctx.Context, query string) (*lookup.QueryResponse, error) {
	req := common.NewRunQueryRequest(rc.RequestID(), query)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	return &lookup.QueryResponse{Elements: resp.Elements}, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// resultsToResponse converts the wire results map into a lookup response
func resultsToResponse(results map[string]lookup.KeyResult) *lookup.Response {
	resp := lookup.NewResponse()
	for key, result := range results {
		resp.KVPairs[key] = result
	}
	return resp
}
