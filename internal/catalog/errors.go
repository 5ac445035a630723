package catalog

import "errors"

var (
	// ErrNotFound is returned when no collection is registered under a name.
	ErrNotFound = errors.New("catalog: collection not found")

	// ErrAlreadyExists is returned by Register for a name already taken
	// with a different shard count.
	ErrAlreadyExists = errors.New("catalog: collection already exists")

	// ErrInvalidName rejects empty collection names up front, before they
	// ever reach a query.
	ErrInvalidName = errors.New("catalog: collection name must be non-empty")
)
