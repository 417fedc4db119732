package api

import (
	"errors"
	"net/http"

	"github.com/okian/hackreg/internal/adapters/repository"
	service "github.com/okian/hackreg/internal/app"
	"github.com/okian/hackreg/internal/domain/form"
)

// Sentinel kinds for API errors.
var (
	ErrServe        = errors.New("http serve failed")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// StatusFor maps an error to an HTTP status and a stable error code.
func StatusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrBranchClosed):
		return http.StatusForbidden, "branch_closed"
	case errors.Is(err, service.ErrBranchNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrWrongBranchKind):
		return http.StatusBadRequest, "wrong_branch_kind"
	case errors.Is(err, form.ErrInvalidAnswer),
		errors.Is(err, form.ErrUnknownQuestion),
		errors.Is(err, form.ErrMissingAnswer):
		return http.StatusBadRequest, "invalid_answer"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidFilter),
		errors.Is(err, service.ErrInvalidSchedule):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
