package tcp

import (
	"encoding/json"
	"errors"

	"github.com/arangodb/assoctable/internal/collection"
)

func isNotFound(err error) bool {
	return errors.Is(err, collection.ErrNotFound) || errors.Is(err, collection.ErrEmptyKey)
}

// encodeStats uses JSON rather than gob because the concrete type behind
// Collections.Stats varies by caller and is never registered with gob.
func encodeStats(stats any) ([]byte, error) {
	return json.Marshal(stats)
}
