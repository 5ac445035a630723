// Package index implements a secondary hash index over a single document
// attribute: attribute value -> posting list of document ids. This is the
// "hash indexes over attributes" consumer named by the associative
// array's external interface.
package index

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/cespare/xxhash/v2"

	"github.com/arangodb/assoctable/pkg/assoc"
)

// posting is the fixed-size element stored in the index's assoc.Table. It
// embeds the attribute value (its key) and a pointer to a roaring bitmap
// of document ids — the bitmap is the variable-length payload kept
// outside the slot itself, the same pattern internal/collection uses for
// document bodies.
type posting struct {
	value string
	ids   *roaring.Bitmap
}

func (p posting) isEmpty() bool { return p.value == "" }

type postingDescription struct{}

func (postingDescription) ClearElement(e *posting) { *e = posting{} }

func (postingDescription) DeleteElement(e *posting) { *e = posting{} }

func (postingDescription) HashElement(e posting) uint32 {
	return uint32(xxhash.Sum64String(e.value))
}

func (postingDescription) HashKey(k string) uint32 {
	return uint32(xxhash.Sum64String(k))
}

func (postingDescription) IsEmptyElement(e posting) bool { return e.isEmpty() }

func (postingDescription) IsEqualElementElement(a, b posting) bool { return a.value == b.value }

func (postingDescription) IsEqualKeyElement(k string, e posting) bool { return k == e.value }

var _ assoc.Description[string, posting] = postingDescription{}
