package index

import "errors"

var (
	ErrEmptyValue = errors.New("index: attribute value must be non-empty")
)
