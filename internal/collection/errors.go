package collection

import "errors"

var (
	ErrEmptyKey = errors.New("collection: document id must be non-zero")
	ErrNotFound = errors.New("collection: document not found")
	ErrClosed   = errors.New("collection: store is closed")
)
