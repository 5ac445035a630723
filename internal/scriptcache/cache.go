// Package scriptcache caches compiled script values keyed by a hash of
// their source text — the "cached script-engine values" consumer named
// by the associative array's external interface. It stands in for the
// embedded scripting engine's isolate/compile-cache layer, which this
// repository's retrieval slice references (V8/v8-utils.h) but does not
// include.
package scriptcache

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/arangodb/assoctable/pkg/assoc"
)

const defaultInitialCapacity = 31

// bufferPool recycles compiled-bytecode buffers across cache evictions,
// the same pooling idiom this repository's reference wire protocol uses
// for its read/write buffers.
var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 4096)
		return &buf
	},
}

// entry is the fixed-size slot: a script hash (its key) plus a handle to
// a pooled buffer holding the compiled bytecode.
type entry struct {
	hash     uint64
	bytecode *[]byte
}

func (e entry) isEmpty() bool { return e.hash == 0 }

type entryDescription struct{}

func (entryDescription) ClearElement(e *entry) { *e = entry{} }

// DeleteElement returns the pooled buffer. It is called by
// Table.ClearAndDelete, and explicitly by Cache.Put on the entry being
// replaced and by Cache.Evict on the entry RemoveKey returned.
func (entryDescription) DeleteElement(e *entry) {
	if e.bytecode != nil {
		*e.bytecode = (*e.bytecode)[:0]
		bufferPool.Put(e.bytecode)
	}
	*e = entry{}
}

func (entryDescription) HashElement(e entry) uint32 { return uint32(e.hash) }

func (entryDescription) HashKey(k uint64) uint32 { return uint32(k) }

func (entryDescription) IsEmptyElement(e entry) bool { return e.isEmpty() }

func (entryDescription) IsEqualElementElement(a, b entry) bool { return a.hash == b.hash }

func (entryDescription) IsEqualKeyElement(k uint64, e entry) bool { return k == e.hash }

var _ assoc.Description[uint64, entry] = entryDescription{}

// Cache maps script source to its compiled bytecode buffer.
type Cache struct {
	mu    sync.RWMutex
	table *assoc.Table[uint64, entry]
}

// New creates an empty script-value cache.
func New() *Cache {
	return &Cache{
		table: assoc.NewTable[uint64, entry](defaultInitialCapacity, entryDescription{}),
	}
}

// HashSource hashes script source text into the cache key.
func HashSource(source string) uint64 {
	h := xxhash.Sum64String(source)
	if h == 0 {
		// 0 is the empty sentinel; this string is astronomically
		// unlikely but not impossible to hash to exactly 0, so nudge it.
		h = 1
	}
	return h
}

// Get returns the compiled bytecode for a given source hash, if cached.
func (c *Cache) Get(hash uint64) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.table.FindKey(hash)
	if !ok {
		return nil, false
	}
	return *e.bytecode, true
}

// Put stores compiled bytecode for the given source hash, taking
// ownership of a pooled buffer copy of bytecode.
func (c *Cache) Put(hash uint64, bytecode []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf := bufferPool.Get().(*[]byte)
	*buf = append((*buf)[:0], bytecode...)

	if existing, ok := c.table.FindKey(hash); ok {
		entryDescription{}.DeleteElement(&existing)
	}

	c.table.AddElementWithKey(hash, entry{hash: hash, bytecode: buf}, true)
}

// Evict drops the cached entry for hash, returning its pooled buffer.
func (c *Cache) Evict(hash uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.table.RemoveKey(hash)
	if !removed.isEmpty() {
		entryDescription{}.DeleteElement(&removed)
	}
}

// Len reports the number of cached scripts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table.Len()
}

// Stats returns the underlying table's operation counters.
func (c *Cache) Stats() assoc.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table.Stats()
}
