package auth

import (
	"fmt"

	"college/internal/apperr"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)
	// ErrInvalidToken is returned for any token that fails validation.
	ErrInvalidToken = fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	// ErrEncoding is returned for passwords bcrypt cannot hash safely.
	ErrEncoding = fmt.Errorf("%w: password encoding", apperr.ErrValidation)
)
