// Package assoc implements a generic open-addressing associative array
// for plain-old-data elements where the element embeds its own key.
package assoc

// Description is the capability bundle a caller supplies so Table can
// generically hash, compare, and clear elements of type E keyed by K.
//
// Coherence requirement: for any element e with key k(e),
// HashKey(k(e)) == HashElement(e) and IsEqualKeyElement(k(e), e) must be
// true. Violations corrupt the table silently — Table never double-checks
// this on the caller's behalf.
type Description[K any, E any] interface {
	// ClearElement mutates e in place so that IsEmptyElement(*e) holds
	// afterward.
	ClearElement(e *E)

	// DeleteElement releases any resource the element references, beyond
	// the element's own storage. Called only by Table.ClearAndDelete.
	// Implementations that hold no external resource can make this a
	// no-op.
	DeleteElement(e *E)

	// HashElement returns a deterministic, pure 32-bit hash of e's key.
	HashElement(e E) uint32

	// HashKey returns a deterministic, pure 32-bit hash of k. Must agree
	// with HashElement on any element whose embedded key is k.
	HashKey(k K) uint32

	// IsEmptyElement reports whether e is the empty sentinel.
	IsEmptyElement(e E) bool

	// IsEqualElementElement reports key-based equality between a and b.
	IsEqualElementElement(a, b E) bool

	// IsEqualKeyElement reports whether k is the key embedded in e.
	IsEqualKeyElement(k K, e E) bool
}
