package collection

import "github.com/arangodb/assoctable/pkg/assoc"

// slot is the fixed-size element stored in each shard's assoc.Table. It
// embeds the document id (its key) plus just enough metadata to locate
// the document body in the value log — the body itself, being
// variable-length, lives outside the table (see valuelog.go), matching
// the associative array's "plain-old-data, fixed value size" contract.
type slot struct {
	docID    uint64
	size     uint32
	revision uint32
}

func (s slot) isEmpty() bool { return s.docID == 0 }

// slotDescription is the assoc.Description for Store's per-shard tables.
// docID 0 is reserved as the empty sentinel; callers must never store a
// document under id 0 (enforced in Store.Put).
type slotDescription struct{}

func (slotDescription) ClearElement(e *slot) { *e = slot{} }

func (slotDescription) DeleteElement(e *slot) {}

func (slotDescription) HashElement(e slot) uint32 { return hashDocID(e.docID) }

func (slotDescription) HashKey(k uint64) uint32 { return hashDocID(k) }

func (slotDescription) IsEmptyElement(e slot) bool { return e.isEmpty() }

func (slotDescription) IsEqualElementElement(a, b slot) bool { return a.docID == b.docID }

func (slotDescription) IsEqualKeyElement(k uint64, e slot) bool { return k == e.docID }

var _ assoc.Description[uint64, slot] = slotDescription{}
