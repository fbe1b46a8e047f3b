package server

import (
	"fmt"

	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/lib/reqctx"
	"github.com/signalserve/skv/lib/telemetry"
	"github.com/signalserve/skv/rpc/common"
)

// NewLookupServerAdapter creates an adapter that dispatches lookup requests
// to the shard's lookup implementation. The metrics recorder is attached to
// the request context of every dispatched request.
func NewLookupServerAdapter(metrics telemetry.IMetricsRecorder) IRPCServerAdapter {
	return &lookupServerAdapterImpl{metrics: metrics}
}

type lookupServerAdapterImpl struct {
	metrics telemetry.IMetricsRecorder
}

func (adapter *lookupServerAdapterImpl) Handle(req *common.Message, l lookup.ILookup) *common.Message {
	// Check for nil lookup
	if l == nil {
		return common.NewErrorResponse("handler: lookup is nil")
	}

	// Rebuild the request context with the propagated request ID
	rc := reqctx.WithRequestID(req.RequestID, adapter.metrics)

	// Handle different message types
	switch req.MsgType {
	case common.MsgTGetKeyValues:
		resp, err := l.GetKeyValues(rc, req.Keys)
		return common.NewGetKeyValuesResponse(responseResults(resp), err)
	case common.MsgTGetKeyValueSet:
		resp, err := l.GetKeyValueSet(rc, req.Keys)
		return common.NewGetKeyValueSetResponse(responseResults(resp), err)
	case common.MsgTRunQuery:
		resp, err := l.RunQuery(rc, req.Query)
		return common.NewRunQueryResponse(responseElements(resp), err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC ILookupAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}

// responseResults extracts the results map from a lookup response, nil-safe
func responseResults(resp *lookup.Response) map[string]lookup.KeyResult {
	if resp == nil {
		return nil
	}
	return resp.KVPairs
}

// responseElements extracts the element list from a query response, nil-safe
func responseElements(resp *lookup.QueryResponse) []string {
	if resp == nil {
		return nil
	}
	return resp.Elements
}
