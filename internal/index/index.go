package index

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/sync/singleflight"

	"github.com/arangodb/assoctable/pkg/assoc"
)

const defaultInitialCapacity = 63

// MaxIndexCapacity bounds how far a single attribute's table may grow
// before the fill-up handler vetoes further rehashing, trading probe
// length for a hard memory ceiling — the escape hatch the associative
// array's design reserves for caller-managed sizing.
const MaxIndexCapacity = 1 << 20

// attrIndex is one attribute's value -> posting-list table.
type attrIndex struct {
	mu    sync.RWMutex
	table *assoc.Table[string, posting]
	group singleflight.Group
}

func newAttrIndex() *attrIndex {
	return &attrIndex{
		table: assoc.NewTableWithFillUp[string, posting](
			defaultInitialCapacity,
			postingDescription{},
			assoc.CappedFillUpHandler[string, posting]{MaxCapacity: MaxIndexCapacity},
		),
	}
}

// Index manages one attrIndex per indexed attribute name.
type Index struct {
	mu    sync.RWMutex
	attrs map[string]*attrIndex
}

// New creates an empty secondary-index manager.
func New() *Index {
	return &Index{attrs: make(map[string]*attrIndex)}
}

func (ix *Index) attr(name string) *attrIndex {
	ix.mu.RLock()
	a, ok := ix.attrs[name]
	ix.mu.RUnlock()
	if ok {
		return a
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if a, ok = ix.attrs[name]; ok {
		return a
	}
	a = newAttrIndex()
	ix.attrs[name] = a
	return a
}

// Add records that docID has the given value for attribute name.
func (ix *Index) Add(name, value string, docID uint64) error {
	if value == "" {
		return ErrEmptyValue
	}
	a := ix.attr(name)

	// Coalesce concurrent first-inserts of a never-seen value so only one
	// goroutine pays the table-growth cost; every caller still adds its
	// own docID below, since singleflight.Do would otherwise hand callers
	// B and C the cached result of caller A's insert without recording
	// their own ids.
	_, _, _ = a.group.Do(value, func() (any, error) {
		a.mu.Lock()
		if _, ok := a.table.FindKey(value); !ok {
			a.table.AddElementWithKey(value, posting{value: value, ids: roaring.New()}, true)
		}
		a.mu.Unlock()
		return nil, nil
	})

	a.mu.Lock()
	p, _ := a.table.FindKey(value)
	p.ids.Add(uint32(docID))
	a.mu.Unlock()

	return nil
}

// Remove drops docID from the posting list for name=value.
func (ix *Index) Remove(name, value string, docID uint64) {
	a := ix.attr(name)
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.table.FindKey(value)
	if !ok {
		return
	}
	p.ids.Remove(uint32(docID))
	if p.ids.IsEmpty() {
		a.table.RemoveKey(value)
	}
}

// Lookup returns the set of document ids recorded under name=value.
func (ix *Index) Lookup(name, value string) *roaring.Bitmap {
	a := ix.attr(name)
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.table.FindKey(value)
	if !ok {
		return roaring.New()
	}
	return p.ids.Clone()
}

// Stats returns assoc.Stats for every indexed attribute.
func (ix *Index) Stats() map[string]assoc.Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[string]assoc.Stats, len(ix.attrs))
	for name, a := range ix.attrs {
		a.mu.RLock()
		out[name] = a.table.Stats()
		a.mu.RUnlock()
	}
	return out
}

// AttrSize is one attribute table's slot-array occupancy, the gauge half
// of the capacity-tuning surface (Stats carries the counter half).
type AttrSize struct {
	Len int
	Cap int
}

// Sizes returns Len/Cap per indexed attribute, for periodic metrics
// scraping.
func (ix *Index) Sizes() map[string]AttrSize {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[string]AttrSize, len(ix.attrs))
	for name, a := range ix.attrs {
		a.mu.RLock()
		out[name] = AttrSize{Len: a.table.Len(), Cap: a.table.Cap()}
		a.mu.RUnlock()
	}
	return out
}
