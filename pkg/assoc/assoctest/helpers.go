// Package assoctest holds a probe-chain checker for tests of any
// Description implementation. No test in this repository imports it:
// pkg/assoc's own tests carry their own copy (fuzz_test.go), and the
// internal/collection, internal/index and internal/scriptcache tests
// check behavior through their packages' public APIs.
package assoctest

import "github.com/arangodb/assoctable/pkg/assoc"

// CheckProbeChain walks every used slot in t and verifies that the
// forward walk from its natural bucket reaches it without crossing an
// empty slot — invariant 2 of the associative-array contract. It calls
// fail once for every violation found instead of stopping at the first.
func CheckProbeChain[K any, E any](t *assoc.Table[K, E], desc assoc.Description[K, E], fail func(format string, args ...any)) {
	snap := t.Snapshot()
	n := len(snap)

	for i, e := range snap {
		if desc.IsEmptyElement(e) {
			continue
		}
		bucket := int(desc.HashElement(e)) % n

		j := bucket
		for j != i {
			if desc.IsEmptyElement(snap[j]) {
				fail("probe chain broken: slot %d (bucket %d) crosses empty slot %d before reaching its element", i, bucket, j)
				break
			}
			j = (j + 1) % n
		}
	}
}
