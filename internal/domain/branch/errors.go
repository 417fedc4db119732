package branch

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrLoadCatalog    = errors.New("load catalog")
	ErrInvalidCatalog = errors.New("invalid catalog")
)
