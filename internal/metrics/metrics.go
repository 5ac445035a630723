// Package metrics exposes assoc.Table length and capacity as Prometheus
// gauges and its operation counters as Prometheus counters, per
// collection or index name. Grounded on
// internal/engine/core/metrics/metrics.go: package-level
// prometheus.NewGaugeVec/NewCounterVec values, registered via
// prometheus.MustRegister in init, and fed through ObserveTable (gauges)
// and ObserveCounts (counters).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arangodb/assoctable/pkg/assoc"
)

var (
	TableLen = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "assoctable_table_len",
		Help: "Number of live elements in a table shard",
	}, []string{"table", "shard"})

	TableCap = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "assoctable_table_capacity",
		Help: "Slot array length of a table shard",
	}, []string{"table", "shard"})

	FindsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assoctable_finds_total",
		Help: "Total FindKey/FindElement calls",
	}, []string{"table", "shard"})

	AddsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assoctable_adds_total",
		Help: "Total AddElement/AddElementWithKey calls",
	}, []string{"table", "shard"})

	RemovesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assoctable_removes_total",
		Help: "Total RemoveKey/RemoveElement calls",
	}, []string{"table", "shard"})

	ResizesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assoctable_resizes_total",
		Help: "Total rehash/grow operations",
	}, []string{"table", "shard"})

	ProbesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assoctable_probes_total",
		Help: "Total probe steps past the first, by operation kind",
	}, []string{"table", "shard", "op"})
)

func init() {
	prometheus.MustRegister(TableLen)
	prometheus.MustRegister(TableCap)
	prometheus.MustRegister(FindsTotal)
	prometheus.MustRegister(AddsTotal)
	prometheus.MustRegister(RemovesTotal)
	prometheus.MustRegister(ResizesTotal)
	prometheus.MustRegister(ProbesTotal)
}

// ObserveTable publishes one table's length and capacity under the
// given table/shard label pair. Use ObserveCounts for the cumulative
// operation counters, which need delta tracking between scrapes.
func ObserveTable(table, shard string, length, capacity int) {
	TableLen.WithLabelValues(table, shard).Set(float64(length))
	TableCap.WithLabelValues(table, shard).Set(float64(capacity))
}

// Deltas holds the increase in each assoc.Stats counter since the last
// observation, so ObserveCounts can feed Prometheus counters correctly.
type Deltas struct {
	Finds        uint64
	Adds         uint64
	Removes      uint64
	Resizes      uint64
	ProbesFind   uint64
	ProbesAdd    uint64
	ProbesRemove uint64
	ProbesRehash uint64
}

// Delta computes the per-field increase of cur over prev, clamping
// negative results (e.g. after a Table.Clear reset) to zero.
func Delta(prev, cur assoc.Stats) Deltas {
	return Deltas{
		Finds:        sub(cur.Finds, prev.Finds),
		Adds:         sub(cur.Adds, prev.Adds),
		Removes:      sub(cur.Removes, prev.Removes),
		Resizes:      sub(cur.Resizes, prev.Resizes),
		ProbesFind:   sub(cur.ProbesFind, prev.ProbesFind),
		ProbesAdd:    sub(cur.ProbesAdd, prev.ProbesAdd),
		ProbesRemove: sub(cur.ProbesRemove, prev.ProbesRemove),
		ProbesRehash: sub(cur.ProbesRehash, prev.ProbesRehash),
	}
}

func sub(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

// ObserveCounts adds the given deltas onto the Prometheus counters for
// table/shard.
func ObserveCounts(table, shard string, d Deltas) {
	FindsTotal.WithLabelValues(table, shard).Add(float64(d.Finds))
	AddsTotal.WithLabelValues(table, shard).Add(float64(d.Adds))
	RemovesTotal.WithLabelValues(table, shard).Add(float64(d.Removes))
	ResizesTotal.WithLabelValues(table, shard).Add(float64(d.Resizes))
	ProbesTotal.WithLabelValues(table, shard, "find").Add(float64(d.ProbesFind))
	ProbesTotal.WithLabelValues(table, shard, "add").Add(float64(d.ProbesAdd))
	ProbesTotal.WithLabelValues(table, shard, "remove").Add(float64(d.ProbesRemove))
	ProbesTotal.WithLabelValues(table, shard, "rehash").Add(float64(d.ProbesRehash))
}
