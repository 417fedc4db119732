package service

import "errors"

// Sentinel kinds for service errors. Repository and form errors are wrapped
// as-is; callers match them with errors.Is.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrBranchNotFound  = errors.New("branch not found")
	ErrWrongBranchKind = errors.New("wrong branch kind")
	ErrBranchClosed    = errors.New("branch is not open")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrInvalidEmail    = errors.New("invalid email")
)

// ErrInvalidFilter reports an applicant filter that cannot be parsed.
var ErrInvalidFilter = errors.New("invalid filter")
