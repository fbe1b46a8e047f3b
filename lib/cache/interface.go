package cache

import (
	"github.com/signalserve/skv/lib/reqctx"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IKeyValueSetResult is a read view over the value sets of one cache call.
// The view is bound to the snapshot that was current when the call entered
// the cache and stays valid even if the cache is updated concurrently.
type IKeyValueSetResult interface {
	// GetValueSet returns the value set for a key in lexicographic order.
	// An absent key yields an empty slice, not an error.
	GetValueSet(key string) []string
}

// ICache is the read contract of the serving cache. All methods are safe for
// concurrent use by arbitrarily many readers while a writer publishes new
// snapshots. Reads within one call are never torn across an update: they
// observe the single snapshot captured at call entry.
//
// The cache records no metrics itself; callers decide what a miss means.
type ICache interface {
	// GetKeyValuePairs returns the values for the requested keys. Keys that
	// are not present are simply omitted from the result.
	GetKeyValuePairs(rc *reqctx.Context, keys []string) map[string]string

	// GetKeyValueSet returns a snapshot view over the value sets of the
	// requested keys. Keys not in the request yield empty sets on the view.
	GetKeyValueSet(rc *reqctx.Context, keys []string) IKeyValueSetResult
}

// IMutableCache extends ICache with the mutation operations used by the
// data-loading pipeline. Mutations carry a logical commit timestamp; an
// update that is not newer than the state it targets is ignored, which makes
// replaying an update stream idempotent.
type IMutableCache interface {
	ICache

	// UpdateKeyValue inserts or overwrites the value of a key.
	UpdateKeyValue(key, value string, logicalCommitTime uint64)

	// DeleteKey removes the value of a key. The deletion leaves a tombstone
	// so that older, out-of-order updates for the key stay suppressed until
	// RemoveDeletedKeys garbage-collects it.
	DeleteKey(key string, logicalCommitTime uint64)

	// UpdateKeyValueSet adds values to the value set of a key.
	UpdateKeyValueSet(key string, values []string, logicalCommitTime uint64)

	// DeleteValuesInSet removes values from the value set of a key, again
	// leaving per-value tombstones.
	DeleteValuesInSet(key string, values []string, logicalCommitTime uint64)

	// RemoveDeletedKeys drops all tombstones with a logical commit time up to
	// and including the given one.
	RemoveDeletedKeys(logicalCommitTime uint64)
}
