package collection

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// hashDocID produces the 32-bit hash assoc.Description requires. xxhash
// returns 64 bits; truncation to 32 is this description's responsibility,
// per the associative array's external-interface contract.
func hashDocID(id uint64) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], id)
	return uint32(xxhash.Sum64(buf[:]))
}
