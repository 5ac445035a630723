package collection

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// valueLog persists variable-length document bodies keyed by document id.
// It is the durable counterpart to each shard's in-memory assoc.Table,
// which only ever holds the fixed-size (docID, size, revision) slot.
type valueLog struct {
	db *pebble.DB
}

func openValueLog(dir string) (*valueLog, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("collection: open value log at %s: %w", dir, err)
	}
	return &valueLog{db: db}, nil
}

func (v *valueLog) key(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func (v *valueLog) put(id uint64, body []byte) error {
	return v.db.Set(v.key(id), body, pebble.Sync)
}

func (v *valueLog) get(id uint64) ([]byte, error) {
	data, closer, err := v.db.Get(v.key(id))
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, closer.Close()
}

func (v *valueLog) delete(id uint64) error {
	return v.db.Delete(v.key(id), pebble.Sync)
}

func (v *valueLog) close() error {
	return v.db.Close()
}
