package lookup

import (
	"github.com/signalserve/skv/lib/reqctx"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ILookup is the polymorphic lookup contract of the serving engine. The
// local implementation (lookup/local) answers directly from the in-process
// cache and query engine; the remote implementation (rpc/client) forwards
// the same three operations to the shard that owns the keys. Request
// handling code holds an ILookup and never cares which one it is. The
// concrete implementation is chosen at construction time from the shard
// topology, never by runtime type inspection.
type ILookup interface {
	// GetKeyValues performs point lookups for the given keys. Keys that are
	// not present are reported per key as NotFound inside an otherwise
	// successful response; they are never a call-level error.
	GetKeyValues(rc *reqctx.Context, keys []string) (*Response, error)

	// GetKeyValueSet looks up the value set of every given key. Keys whose
	// set is empty are reported per key as NotFound.
	GetKeyValueSet(rc *reqctx.Context, keys []string) (*Response, error)

	// RunQuery parses and evaluates a set-algebra query. An empty query
	// string succeeds with an empty element sequence. Lexical and syntax
	// errors fail the call with no partial result.
	RunQuery(rc *reqctx.Context, query string) (*QueryResponse, error)
}

// --------------------------------------------------------------------------
// Response Types
// --------------------------------------------------------------------------

// KeyResult is the per-key outcome of a point or set lookup. Exactly one of
// the three states applies: a value, a value set, or not-found.
type KeyResult struct {
	Value    string   `json:"value,omitempty"`
	ValueSet []string `json:"value_set,omitempty"`
	NotFound bool     `json:"not_found,omitempty"`
}

// Response maps every requested key to its result. All requested keys are
// present in the map, found or not.
type Response struct {
	KVPairs map[string]KeyResult `json:"kv_pairs"`
}

// NewResponse creates an empty response.
func NewResponse() *Response {
	return &Response{KVPairs: map[string]KeyResult{}}
}

// QueryResponse is the flat, ordered element sequence a query evaluates to.
type QueryResponse struct {
	Elements []string `json:"elements"`
}
