package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrInvalidUser     = errors.New("invalid user")
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrUnknownDriver   = errors.New("unknown database driver")
)
