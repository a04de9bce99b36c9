// Package apperr holds the error categories shared by the domain packages.
// Domain errors wrap one of these sentinels so the HTTP layer can map them
// to a status code with errors.Is.
package apperr

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrIntegrity    = errors.New("data integrity violation")
)
