package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/lib/reqctx"
	"github.com/signalserve/skv/lib/telemetry"
)

var Logger = logger.GetLogger("handler")

// --------------------------------------------------------------------------
// External Request / Response Shapes
// --------------------------------------------------------------------------

// GetValuesRequest is the external bulk-lookup request. Each group is keyed
// independently; entries may contain comma-separated sub-keys which are
// split before dispatch.
type GetValuesRequest struct {
	InternalKeys          []string `json:"kv_internal,omitempty"`
	Keys                  []string `json:"keys,omitempty"`
	RenderURLs            []string `json:"render_urls,omitempty"`
	AdComponentRenderURLs []string `json:"ad_component_render_urls,omitempty"`
}

// Status reports a per-key failure state, currently only "not found".
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StatusCodeNotFound mirrors the canonical NOT_FOUND status code.
const StatusCodeNotFound = 5

// SingleLookupResult is the per-key outcome of a bulk lookup. Value holds
// either the structured JSON value or, for payloads that are not valid JSON,
// a JSON string wrapping the opaque payload.
type SingleLookupResult struct {
	Value  json.RawMessage `json:"value,omitempty"`
	Status *Status         `json:"status,omitempty"`
}

// GetValuesResponse mirrors the request groups with per-key results.
type GetValuesResponse struct {
	InternalKeys          map[string]SingleLookupResult `json:"kv_internal,omitempty"`
	Keys                  map[string]SingleLookupResult `json:"keys,omitempty"`
	RenderURLs            map[string]SingleLookupResult `json:"render_urls,omitempty"`
	AdComponentRenderURLs map[string]SingleLookupResult `json:"ad_component_render_urls,omitempty"`
}

// --------------------------------------------------------------------------
// Handler
// --------------------------------------------------------------------------

// ILegacyAdapter is the compatibility path for callers still on the old
// request format. Its implementation is injected; the handler only decides
// whether to route to it.
type ILegacyAdapter interface {
	CallLegacyHandler(rc *reqctx.Context, req *GetValuesRequest) (*GetValuesResponse, error)
}

// Config selects the processing path of the handler. The value is fixed at
// construction time; there is no mutable package-level switch.
type Config struct {
	// UseLegacyAdapter routes every request through the injected legacy
	// adapter instead of the direct lookup path.
	UseLegacyAdapter bool
}

// Handler adapts external bulk-lookup requests onto an ILookup. It is safe
// for concurrent use; per-request state lives in the reqctx.Context created
// per call.
type Handler struct {
	lookup  lookup.ILookup
	metrics telemetry.IMetricsRecorder
	config  Config
	adapter ILegacyAdapter
}

// New creates a request handler. The adapter may be nil when
// Config.UseLegacyAdapter is false.
func New(l lookup.ILookup, metrics telemetry.IMetricsRecorder, config Config, adapter ILegacyAdapter) *Handler {
	return &Handler{
		lookup:  l,
		metrics: metrics,
		config:  config,
		adapter: adapter,
	}
}

// GetValues processes one bulk-lookup request. Every non-empty group is
// dispatched independently; a failing group is logged and skipped so the
// remaining groups still make it into the response. The call itself fails
// only if no group could be processed at all.
func (h *Handler) GetValues(requestID string, req *GetValuesRequest) (*GetValuesResponse, error) {
	rc := reqctx.WithRequestID(requestID, h.metrics)

	if h.config.UseLegacyAdapter {
		Logger.Debugf("request %s routed through legacy adapter", rc.RequestID())
		if h.adapter == nil {
			return nil, errors.New("legacy path configured but no adapter injected")
		}
		return h.adapter.CallLegacyHandler(rc, req)
	}

	response := &GetValuesResponse{}
	var processed, failed int
	var errs []error

	process := func(group string, keys []string, into *map[string]SingleLookupResult) {
		if len(keys) == 0 {
			return
		}
		processed++
		result, err := h.processKeys(rc, keys)
		if err != nil {
			failed++
			errs = append(errs, fmt.Errorf("group %s: %w", group, err))
			Logger.Errorf("request %s: group %s failed: %v", rc.RequestID(), group, err)
			return
		}
		*into = result
	}

	process("kv_internal", req.InternalKeys, &response.InternalKeys)
	process("keys", req.Keys, &response.Keys)
	process("render_urls", req.RenderURLs, &response.RenderURLs)
	process("ad_component_render_urls", req.AdComponentRenderURLs, &response.AdComponentRenderURLs)

	if processed > 0 && failed == processed {
		return nil, errors.Join(errs...)
	}
	return response, nil
}

// RunQuery executes a set-algebra query through the configured lookup. Query
// calls are all-or-nothing: any parse or lookup failure fails the call.
func (h *Handler) RunQuery(requestID string, query string) ([]string, error) {
	rc := reqctx.WithRequestID(requestID, h.metrics)

	resp, err := h.lookup.RunQuery(rc, query)
	if err != nil {
		return nil, err
	}
	return resp.Elements, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// processKeys resolves one request group and builds its per-key results.
func (h *Handler) processKeys(rc *reqctx.Context, keys []string) (map[string]SingleLookupResult, error) {
	actualKeys := splitKeys(keys)

	resp, err := h.lookup.GetKeyValues(rc, actualKeys)
	if err != nil {
		return nil, err
	}

	hit := false
	result := make(map[string]SingleLookupResult, len(actualKeys))
	for _, key := range actualKeys {
		keyResult, ok := resp.KVPairs[key]
		if !ok || keyResult.NotFound {
			result[key] = SingleLookupResult{
				Status: &Status{Code: StatusCodeNotFound, Message: "Key not found"},
			}
			continue
		}
		hit = true
		result[key] = SingleLookupResult{Value: decodeValue(keyResult.Value)}
	}

	if hit {
		rc.Metrics().IncrementEventCounter(telemetry.MetricCacheKeyHit)
	} else {
		rc.Metrics().IncrementEventCounter(telemetry.MetricCacheKeyMiss)
	}
	return result, nil
}

// splitKeys expands comma-separated entries and deduplicates the result,
// preserving first-seen order.
func splitKeys(keys []string) []string {
	seen := map[string]struct{}{}
	result := make([]string, 0, len(keys))
	for _, entry := range keys {
		for _, key := range strings.Split(entry, ",") {
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, key)
		}
	}
	return result
}

// decodeValue attempts the structured decode of a value payload. Valid JSON
// passes through untouched; everything else is wrapped as a JSON string.
// Decode failure is never surfaced to the caller.
func decodeValue(value string) json.RawMessage {
	trimmed := strings.TrimSpace(value)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return json.RawMessage(strconv.Quote(value))
}
