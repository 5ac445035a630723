// Package collection implements the document store: a sharded
// assoc.Table mapping document id to a fixed-size slot that locates the
// document body in a pebble-backed value log. This is the "document-id-
// to-slot mapping inside a collection" consumer named by the associative
// array's external interface.
package collection

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arangodb/assoctable/internal/persistence"
	"github.com/arangodb/assoctable/pkg/assoc"
)

const defaultShardInitialCapacity = 127

// shard owns one assoc.Table guarded by its own RWMutex, following the
// per-shard-mutex pattern used throughout this repository's reference
// codebase for its cache stores.
type shard struct {
	mu    sync.RWMutex
	table *assoc.Table[uint64, slot]
}

// Store is a sharded document collection: N independent shards, each a
// small in-memory index plus a shared durable value log and a shared
// write-ahead log that lets the index be rebuilt on restart without
// rescanning the value log.
type Store struct {
	name       string
	shardCount uint32
	shards     []*shard
	log        *valueLog
	wal        *persistence.Log

	puts    uint64
	gets    uint64
	deletes uint64
	closed  atomic.Bool
}

// defaultSnapshotInterval is used when Open is called with
// snapshotInterval <= 0, bounding how much WAL a restart must replay.
const defaultSnapshotInterval = 5 * time.Minute

// Open creates or reopens a document collection persisted under dataDir.
// shardCount must be a small positive integer; 0 selects a default.
// snapshotInterval controls how often a background slot-index snapshot
// runs; <= 0 selects defaultSnapshotInterval. The shard tables are
// rebuilt from the collection's WAL and latest snapshot before Open
// returns, so every previously durable Put/Delete is visible immediately.
func Open(name, dataDir string, shardCount int, snapshotInterval time.Duration) (*Store, error) {
	if shardCount <= 0 {
		shardCount = 16
	}
	if snapshotInterval <= 0 {
		snapshotInterval = defaultSnapshotInterval
	}

	vl, err := openValueLog(filepath.Join(dataDir, name))
	if err != nil {
		return nil, err
	}

	wal, err := persistence.Open(filepath.Join(dataDir, name+"_wal"))
	if err != nil {
		vl.close()
		return nil, err
	}

	s := &Store{
		name:       name,
		shardCount: uint32(shardCount),
		shards:     make([]*shard, shardCount),
		log:        vl,
		wal:        wal,
	}
	for i := range s.shards {
		s.shards[i] = &shard{
			table: assoc.NewTable[uint64, slot](defaultShardInitialCapacity, slotDescription{}),
		}
	}

	records, err := wal.LoadAll()
	if err != nil {
		vl.close()
		wal.Close()
		return nil, fmt.Errorf("collection %s: replay wal: %w", name, err)
	}
	for _, r := range records {
		sh := s.shardFor(r.DocID)
		sh.table.AddElementWithKey(r.DocID, slot{docID: r.DocID, size: r.Size, revision: r.Revision}, true)
	}

	s.wal.StartPeriodicSnapshot(snapshotInterval, s.snapshotRecords)

	log.Printf("[COLLECTION] opened %q: shards=%d dir=%s replayed=%d", name, shardCount, dataDir, len(records))
	return s, nil
}

// snapshotRecords captures every live slot across all shards as the
// record set the next WAL snapshot should contain.
func (s *Store) snapshotRecords() []persistence.Record {
	var out []persistence.Record
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, sl := range sh.table.Snapshot() {
			if !sl.isEmpty() {
				out = append(out, persistence.Record{DocID: sl.docID, Size: sl.size, Revision: sl.revision})
			}
		}
		sh.mu.RUnlock()
	}
	return out
}

func (s *Store) shardFor(docID uint64) *shard {
	return s.shards[hashDocID(docID)%s.shardCount]
}

// Put stores body under docID, replacing any prior revision.
func (s *Store) Put(docID uint64, body []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if docID == 0 {
		return ErrEmptyKey
	}

	sh := s.shardFor(docID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if err := s.log.put(docID, body); err != nil {
		return fmt.Errorf("collection %s: put %d: %w", s.name, docID, err)
	}

	existing, ok := sh.table.FindKey(docID)
	rev := uint32(1)
	if ok {
		rev = existing.revision + 1
	}

	sh.table.AddElementWithKey(docID, slot{docID: docID, size: uint32(len(body)), revision: rev}, true)

	if err := s.wal.Append(persistence.Record{DocID: docID, Size: uint32(len(body)), Revision: rev}); err != nil {
		return fmt.Errorf("collection %s: wal append %d: %w", s.name, docID, err)
	}

	atomic.AddUint64(&s.puts, 1)
	return nil
}

// Get returns the document body for docID.
func (s *Store) Get(docID uint64) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if docID == 0 {
		return nil, ErrEmptyKey
	}

	sh := s.shardFor(docID)
	sh.mu.RLock()
	_, ok := sh.table.FindKey(docID)
	sh.mu.RUnlock()

	atomic.AddUint64(&s.gets, 1)
	if !ok {
		return nil, ErrNotFound
	}
	return s.log.get(docID)
}

// Exists reports whether docID is present, without touching the value
// log.
func (s *Store) Exists(docID uint64) bool {
	if s.closed.Load() {
		return false
	}
	sh := s.shardFor(docID)
	sh.mu.RLock()
	_, ok := sh.table.FindKey(docID)
	sh.mu.RUnlock()
	return ok
}

// Delete removes docID from both the shard index and the value log.
func (s *Store) Delete(docID uint64) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if docID == 0 {
		return ErrEmptyKey
	}

	sh := s.shardFor(docID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	removed := sh.table.RemoveKey(docID)
	if removed.isEmpty() {
		return ErrNotFound
	}

	if err := s.wal.Append(persistence.Record{DocID: docID, Tombstone: true}); err != nil {
		return fmt.Errorf("collection %s: wal append tombstone %d: %w", s.name, docID, err)
	}

	atomic.AddUint64(&s.deletes, 1)
	return s.log.delete(docID)
}

// Stats aggregates assoc.Stats across all shards plus the store-level
// operation counters, the capacity-tuning surface the associative
// array's design calls for.
type Stats struct {
	Name       string
	ShardCount int
	Size       int
	Puts       uint64
	Gets       uint64
	Deletes    uint64
	Shards     []assoc.Stats
}

func (s *Store) Stats() Stats {
	out := Stats{
		Name:       s.name,
		ShardCount: int(s.shardCount),
		Puts:       atomic.LoadUint64(&s.puts),
		Gets:       atomic.LoadUint64(&s.gets),
		Deletes:    atomic.LoadUint64(&s.deletes),
		Shards:     make([]assoc.Stats, s.shardCount),
	}

	for i, sh := range s.shards {
		sh.mu.RLock()
		out.Shards[i] = sh.table.Stats()
		out.Size += sh.table.Len()
		sh.mu.RUnlock()
	}

	return out
}

// ShardSize is one shard's slot-array occupancy, the gauge half of the
// capacity-tuning surface (Stats carries the counter half).
type ShardSize struct {
	Len int
	Cap int
}

// ShardSizes returns Len/Cap per shard, for periodic metrics scraping.
func (s *Store) ShardSizes() []ShardSize {
	out := make([]ShardSize, s.shardCount)
	for i, sh := range s.shards {
		sh.mu.RLock()
		out[i] = ShardSize{Len: sh.table.Len(), Cap: sh.table.Cap()}
		sh.mu.RUnlock()
	}
	return out
}

// Close stops the background snapshot loop, takes a final snapshot, and
// releases the underlying value log and write-ahead log. Once Close
// returns, every Get/Put/Delete/Exists call on s fails with ErrClosed
// instead of touching the now-released log and WAL.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.wal.Close(); err != nil {
		return err
	}
	return s.log.close()
}
