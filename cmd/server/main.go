// Command server boots the assoctable document store: it loads
// configuration, connects the collection catalog, opens every
// pre-declared collection, and serves both the admin HTTP API and the
// binary TCP document protocol until it receives a termination signal.
// Grounded on the reference codebase's cmd/server/main.go: numbered
// startup stages, getEnv-derived flags, and a signal.Notify-based
// graceful shutdown block.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/arangodb/assoctable/internal/adapter/httpapi"
	"github.com/arangodb/assoctable/internal/adapter/tcp"
	"github.com/arangodb/assoctable/internal/catalog"
	"github.com/arangodb/assoctable/internal/collection"
	"github.com/arangodb/assoctable/internal/config"
	"github.com/arangodb/assoctable/internal/index"
	"github.com/arangodb/assoctable/internal/metrics"
	"github.com/arangodb/assoctable/pkg/assoc"
)

// metricsInterval is how often runMetricsLoop turns every collection
// shard's and index attribute's assoc.Stats into Prometheus observations.
const metricsInterval = 10 * time.Second

// registry owns one collection.Store plus one index.Index per
// collection name, and backs both the HTTP admin API and the TCP
// document protocol. Document bodies are treated as JSON objects so
// their declared indexedAttrs can be extracted on write and queried
// back out through IndexLookup.
type registry struct {
	mu               sync.RWMutex
	dataDir          string
	snapshotInterval time.Duration
	stores           map[string]*collection.Store
	indexes          map[string]*index.Index
	indexedAttrs     map[string][]string
}

func newRegistry(dataDir string, snapshotInterval time.Duration) *registry {
	return &registry{
		dataDir:          dataDir,
		snapshotInterval: snapshotInterval,
		stores:           make(map[string]*collection.Store),
		indexes:          make(map[string]*index.Index),
		indexedAttrs:     make(map[string][]string),
	}
}

func (r *registry) open(name string, shards int, indexedAttrs []string) error {
	store, err := collection.Open(name, r.dataDir, shards, r.snapshotInterval)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.stores[name] = store
	r.indexes[name] = index.New()
	r.indexedAttrs[name] = indexedAttrs
	r.mu.Unlock()
	return nil
}

func (r *registry) storeFor(name string) (*collection.Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[name]
	return s, ok
}

func (r *registry) indexFor(name string) (*index.Index, []string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ix, ok := r.indexes[name]
	return ix, r.indexedAttrs[name], ok
}

// reindex extracts every configured indexed attribute from a JSON
// document body and records docID under each attribute=value pair. A
// body that isn't a JSON object, or that's missing an attribute, is
// silently skipped for that attribute: the index is best-effort over
// whatever structure the caller's documents actually have.
func reindex(ix *index.Index, attrs []string, docID uint64, body []byte) {
	if len(attrs) == 0 {
		return
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return
	}
	for _, attr := range attrs {
		v, ok := doc[attr]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if err := ix.Add(attr, s, docID); err != nil {
			log.Printf("[registry] index add %s=%s: %v", attr, s, err)
		}
	}
}

// deindex is reindex's inverse, used to drop a document's stale entries
// before it's overwritten or once it's deleted.
func deindex(ix *index.Index, attrs []string, docID uint64, body []byte) {
	if len(attrs) == 0 || body == nil {
		return
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return
	}
	for _, attr := range attrs {
		v, ok := doc[attr]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			ix.Remove(attr, s, docID)
		}
	}
}

// tcp.Collections

func (r *registry) Get(collectionName string, docID uint64) ([]byte, error) {
	s, ok := r.storeFor(collectionName)
	if !ok {
		return nil, collection.ErrNotFound
	}
	return s.Get(docID)
}

func (r *registry) Put(collectionName string, docID uint64, value []byte) error {
	s, ok := r.storeFor(collectionName)
	if !ok {
		return collection.ErrNotFound
	}

	ix, attrs, _ := r.indexFor(collectionName)
	if old, err := s.Get(docID); err == nil {
		deindex(ix, attrs, docID, old)
	}

	if err := s.Put(docID, value); err != nil {
		return err
	}

	reindex(ix, attrs, docID, value)
	return nil
}

func (r *registry) Delete(collectionName string, docID uint64) error {
	s, ok := r.storeFor(collectionName)
	if !ok {
		return collection.ErrNotFound
	}

	ix, attrs, _ := r.indexFor(collectionName)
	old, getErr := s.Get(docID)

	if err := s.Delete(docID); err != nil {
		return err
	}

	if getErr == nil {
		deindex(ix, attrs, docID, old)
	}
	return nil
}

func (r *registry) Exists(collectionName string, docID uint64) bool {
	s, ok := r.storeFor(collectionName)
	if !ok {
		return false
	}
	return s.Exists(docID)
}

func (r *registry) Stats(collectionName string) (any, bool) {
	s, ok := r.storeFor(collectionName)
	if !ok {
		return nil, false
	}
	return s.Stats(), true
}

// httpapi.StatsProvider

func (r *registry) CollectionNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	return names
}

// collectionStats is the combined document-store and secondary-index
// view served at GET /v1/collections/{name}/stats.
type collectionStats struct {
	collection.Stats
	Indexes map[string]assoc.Stats `json:"indexes,omitempty"`
}

func (r *registry) CollectionStats(name string) (any, bool) {
	s, ok := r.storeFor(name)
	if !ok {
		return nil, false
	}
	ix, _, _ := r.indexFor(name)
	return collectionStats{Stats: s.Stats(), Indexes: ix.Stats()}, true
}

func (r *registry) IndexLookup(collectionName, attribute, value string) ([]uint64, bool) {
	ix, _, ok := r.indexFor(collectionName)
	if !ok {
		return nil, false
	}
	bitmap := ix.Lookup(attribute, value)
	raw := bitmap.ToArray()
	ids := make([]uint64, len(raw))
	for i, id := range raw {
		ids[i] = uint64(id)
	}
	return ids, true
}

// runMetricsLoop periodically scrapes every open collection shard and
// index attribute and publishes their assoc.Stats into internal/metrics,
// converting the cumulative counters into per-scrape deltas via
// metrics.Delta. It runs until ctx is canceled.
func runMetricsLoop(ctx context.Context, reg *registry) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	prev := make(map[string]assoc.Stats)

	scrape := func() {
		reg.mu.RLock()
		defer reg.mu.RUnlock()

		for name, store := range reg.stores {
			sizes := store.ShardSizes()
			for i, shardStats := range store.Stats().Shards {
				shard := strconv.Itoa(i)
				key := "collection:" + name + "/" + shard
				metrics.ObserveTable(name, shard, sizes[i].Len, sizes[i].Cap)
				metrics.ObserveCounts(name, shard, metrics.Delta(prev[key], shardStats))
				prev[key] = shardStats
			}
		}

		for name, ix := range reg.indexes {
			table := name + ".index"
			sizes := ix.Sizes()
			for attr, attrStats := range ix.Stats() {
				key := "index:" + name + "/" + attr
				sz := sizes[attr]
				metrics.ObserveTable(table, attr, sz.Len, sz.Cap)
				metrics.ObserveCounts(table, attr, metrics.Delta(prev[key], attrStats))
				prev[key] = attrStats
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scrape()
		}
	}
}

func (r *registry) closeAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, s := range r.stores {
		if err := s.Close(); err != nil {
			log.Printf("[registry] close %q: %v", name, err)
		}
	}
}

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ============================================================
	// 1. Catalog + collection schema
	// ============================================================
	cat, err := catalog.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[main] catalog connect failed: %v", err)
	}
	defer cat.Close()

	schemas, err := config.LoadSchema(cfg.SchemaPath)
	if err != nil {
		log.Fatalf("[main] schema load failed: %v", err)
	}

	// ============================================================
	// 2. Open every pre-declared collection
	// ============================================================
	reg := newRegistry(cfg.DataDir, cfg.SnapshotEvery)
	for _, schema := range schemas {
		if err := cat.Register(ctx, schema.Name, schema.Shards); err != nil {
			log.Fatalf("[main] register collection %q: %v", schema.Name, err)
		}
		if err := reg.open(schema.Name, schema.Shards, schema.IndexedAttributes); err != nil {
			log.Fatalf("[main] open collection %q: %v", schema.Name, err)
		}
		log.Printf("[main] opened collection %q (shards=%d, indexed=%v)", schema.Name, schema.Shards, schema.IndexedAttributes)
	}
	defer reg.closeAll()

	// ============================================================
	// 3. Admin HTTP + document TCP servers
	// ============================================================
	httpCfg := httpapi.DefaultConfig()
	httpCfg.Addr = cfg.HTTPAddr
	httpCfg.ShutdownTimeout = cfg.GracefulTimeout
	httpSrv := httpapi.NewServer(httpCfg, reg)

	tcpSrv := tcp.NewServer(cfg.TCPAddr, reg)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil {
			log.Fatalf("[main] http server: %v", err)
		}
	}()
	go func() {
		if err := tcpSrv.Serve(ctx); err != nil {
			log.Fatalf("[main] tcp server: %v", err)
		}
	}()
	go runMetricsLoop(ctx, reg)

	httpSrv.SetReady(true)
	log.Printf("[main] ready: http=%s tcp=%s data=%s", cfg.HTTPAddr, cfg.TCPAddr, cfg.DataDir)

	// ============================================================
	// 4. Graceful shutdown
	// ============================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[main] shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] http shutdown: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("[main] tcp close: %v", err)
	}

	log.Println("[main] bye")
}
