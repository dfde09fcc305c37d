// Package apperr defines the error taxonomy shared by the HTTP layer and the
// realtime gateway. Handlers map these to status codes / error events in one
// place; anything not in the taxonomy is reported as a generic server error.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal error")
)
