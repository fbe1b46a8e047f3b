package local

import (
	"github.com/signalserve/skv/lib/cache"
	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/lib/query"
	"github.com/signalserve/skv/lib/reqctx"
	"github.com/signalserve/skv/lib/telemetry"
)

type localLookup struct {
	cache cache.ICache
}

// NewLocalLookup creates a lookup that answers directly from the given cache
// and the in-process query engine.
func NewLocalLookup(c cache.ICache) lookup.ILookup {
	return &localLookup{cache: c}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see lookup.ILookup)
// --------------------------------------------------------------------------

func (l *localLookup) GetKeyValues(rc *reqctx.Context, keys []string) (*lookup.Response, error) {
	response := lookup.NewResponse()
	if len(keys) == 0 {
		return response, nil
	}

	kvPairs := l.cache.GetKeyValuePairs(rc, keys)
	for _, key := range keys {
		if value, ok := kvPairs[key]; ok {
			response.KVPairs[key] = lookup.KeyResult{Value: value}
		} else {
			response.KVPairs[key] = lookup.KeyResult{NotFound: true}
		}
	}
	return response, nil
}

func (l *localLookup) GetKeyValueSet(rc *reqctx.Context, keys []string) (*lookup.Response, error) {
	response := lookup.NewResponse()
	if len(keys) == 0 {
		return response, nil
	}

	view := l.cache.GetKeyValueSet(rc, keys)
	for _, key := range keys {
		valueSet := view.GetValueSet(key)
		if len(valueSet) == 0 {
			rc.Metrics().IncrementEventCounter(telemetry.MetricKeySetNotFound)
			response.KVPairs[key] = lookup.KeyResult{NotFound: true}
		} else {
			response.KVPairs[key] = lookup.KeyResult{ValueSet: valueSet}
		}
	}
	return response, nil
}

func (l *localLookup) RunQuery(rc *reqctx.Context, queryStr string) (*lookup.QueryResponse, error) {
	latency := telemetry.NewScopeLatencyRecorder(telemetry.MetricLocalRunQuery, rc.Metrics())
	defer latency.Done()

	driver := query.NewDriver()
	if err := driver.Parse(queryStr); err != nil {
		return nil, err
	}

	// Two-phase resolution: the complete leaf key set is fetched from the
	// cache in one call, and the evaluator resolves against that view.
	view := l.cache.GetKeyValueSet(rc, driver.Keys())
	driver.SetKeyValueSetLookup(view.GetValueSet)

	elements, err := driver.Execute()
	if err != nil {
		return nil, err
	}
	return &lookup.QueryResponse{Elements: elements}, nil
}
