package form

import "errors"

// Sentinel kinds for submission errors.
var (
	ErrInvalidAnswer   = errors.New("invalid answer")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrMissingAnswer   = errors.New("missing required answer")
)
