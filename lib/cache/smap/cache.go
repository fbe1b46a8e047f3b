package smap

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/signalserve/skv/lib/cache"
	"github.com/signalserve/skv/lib/reqctx"
)

// --------------------------------------------------------------------------
// Snapshot State
// --------------------------------------------------------------------------

// valueEntry is a point value with the logical commit time of its last write.
type valueEntry struct {
	value string
	t     uint64
}

// setEntry tracks the value set of one key. Both live values and deleted
// values keep their last logical commit time so that out-of-order updates
// can be detected per element.
type setEntry struct {
	values  map[string]uint64 // element -> commit time of the insert
	deleted map[string]uint64 // element -> commit time of the delete
}

func (e setEntry) clone() setEntry {
	c := setEntry{
		values:  make(map[string]uint64, len(e.values)),
		deleted: make(map[string]uint64, len(e.deleted)),
	}
	for v, t := range e.values {
		c.values[v] = t
	}
	for v, t := range e.deleted {
		c.deleted[v] = t
	}
	return c
}

// snapshot is one immutable version of the cache contents. Readers capture
// the current snapshot once per call and never see a newer one mid-call.
type snapshot struct {
	values      map[string]valueEntry
	sets        map[string]setEntry
	deletedKeys map[string]uint64 // key-level tombstones from DeleteKey
}

func emptySnapshot() *snapshot {
	return &snapshot{
		values:      map[string]valueEntry{},
		sets:        map[string]setEntry{},
		deletedKeys: map[string]uint64{},
	}
}

// clone produces a mutable deep copy the writer can modify before publishing.
func (s *snapshot) clone() *snapshot {
	c := &snapshot{
		values:      make(map[string]valueEntry, len(s.values)),
		sets:        make(map[string]setEntry, len(s.sets)),
		deletedKeys: make(map[string]uint64, len(s.deletedKeys)),
	}
	for k, v := range s.values {
		c.values[k] = v
	}
	for k, v := range s.sets {
		c.sets[k] = v.clone()
	}
	for k, t := range s.deletedKeys {
		c.deletedKeys[k] = t
	}
	return c
}

// --------------------------------------------------------------------------
// Cache Implementation
// --------------------------------------------------------------------------

type cacheImpl struct {
	snap    atomic.Pointer[snapshot]
	writeMu sync.Mutex // serializes writers; readers never take it
}

// New creates an empty snapshot-map cache.
func New() cache.IMutableCache {
	c := &cacheImpl{}
	c.snap.Store(emptySnapshot())
	return c
}

// --------------------------------------------------------------------------
// Read Path (docu see cache.ICache)
// --------------------------------------------------------------------------

func (c *cacheImpl) GetKeyValuePairs(rc *reqctx.Context, keys []string) map[string]string {
	snap := c.snap.Load()

	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if entry, ok := snap.values[key]; ok {
			result[key] = entry.value
		}
	}
	return result
}

func (c *cacheImpl) GetKeyValueSet(rc *reqctx.Context, keys []string) cache.IKeyValueSetResult {
	snap := c.snap.Load()

	view := &keyValueSetResult{sets: make(map[string][]string, len(keys))}
	for _, key := range keys {
		entry, ok := snap.sets[key]
		if !ok {
			continue
		}
		values := make([]string, 0, len(entry.values))
		for v := range entry.values {
			values = append(values, v)
		}
		sort.Strings(values)
		view.sets[key] = values
	}
	return view
}

// keyValueSetResult materializes the requested sets out of one snapshot, so
// the view stays valid no matter what the writer publishes afterwards.
type keyValueSetResult struct {
	sets map[string][]string
}

func (r *keyValueSetResult) GetValueSet(key string) []string {
	if values, ok := r.sets[key]; ok {
		return values
	}
	return []string{}
}

// --------------------------------------------------------------------------
// Write Path (docu see cache.IMutableCache)
// --------------------------------------------------------------------------

func (c *cacheImpl) UpdateKeyValue(key, value string, logicalCommitTime uint64) {
	c.mutate(func(s *snapshot) {
		if t, deleted := s.deletedKeys[key]; deleted && logicalCommitTime <= t {
			return
		}
		if entry, ok := s.values[key]; ok && logicalCommitTime <= entry.t {
			return
		}
		s.values[key] = valueEntry{value: value, t: logicalCommitTime}
		delete(s.deletedKeys, key)
	})
}

func (c *cacheImpl) DeleteKey(key string, logicalCommitTime uint64) {
	c.mutate(func(s *snapshot) {
		if entry, ok := s.values[key]; ok && logicalCommitTime <= entry.t {
			return
		}
		delete(s.values, key)
		s.deletedKeys[key] = logicalCommitTime
	})
}

func (c *cacheImpl) UpdateKeyValueSet(key string, values []string, logicalCommitTime uint64) {
	c.mutate(func(s *snapshot) {
		entry, ok := s.sets[key]
		if !ok {
			entry = setEntry{values: map[string]uint64{}, deleted: map[string]uint64{}}
		}
		for _, v := range values {
			if t, deleted := entry.deleted[v]; deleted && logicalCommitTime <= t {
				continue
			}
			if t, ok := entry.values[v]; ok && logicalCommitTime <= t {
				continue
			}
			entry.values[v] = logicalCommitTime
			delete(entry.deleted, v)
		}
		s.sets[key] = entry
	})
}

func (c *cacheImpl) DeleteValuesInSet(key string, values []string, logicalCommitTime uint64) {
	c.mutate(func(s *snapshot) {
		entry, ok := s.sets[key]
		if !ok {
			return
		}
		for _, v := range values {
			if t, ok := entry.values[v]; ok && logicalCommitTime <= t {
				continue
			}
			delete(entry.values, v)
			entry.deleted[v] = logicalCommitTime
		}
		s.sets[key] = entry
	})
}

func (c *cacheImpl) RemoveDeletedKeys(logicalCommitTime uint64) {
	c.mutate(func(s *snapshot) {
		for key, t := range s.deletedKeys {
			if t <= logicalCommitTime {
				delete(s.deletedKeys, key)
			}
		}
		for key, entry := range s.sets {
			for v, t := range entry.deleted {
				if t <= logicalCommitTime {
					delete(entry.deleted, v)
				}
			}
			if len(entry.values) == 0 && len(entry.deleted) == 0 {
				delete(s.sets, key)
			}
		}
	})
}

// mutate clones the current snapshot, applies fn to the clone and publishes
// it. Writers are serialized by writeMu; readers keep using the previous
// snapshot until the atomic store below.
func (c *cacheImpl) mutate(fn func(s *snapshot)) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	next := c.snap.Load().clone()
	fn(next)
	c.snap.Store(next)
}
