package persistence

// Record is one durable fact about a document's slot: either it now
// exists with this size and revision, or Tombstone marks that it was
// removed. This is the stream internal/collection.Store replays to
// rebuild its in-memory assoc.Table without rescanning the value log.
type Record struct {
	DocID     uint64
	Size      uint32
	Revision  uint32
	Tombstone bool
}
