package models

import (
	"errors"
	"fmt"
)

// Error kinds. Services and repositories wrap these with %w so that
// handlers can map them to HTTP statuses with errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrOwnerRequired      = fmt.Errorf("%w: complaint must have a valid user_id", ErrBadRequest)
	ErrSigningKeyMissing  = errors.New("jwt signing key is not configured")
	ErrNoFieldsToUpdate   = fmt.Errorf("%w: no updatable fields supplied", ErrBadRequest)
	ErrInvalidImage       = fmt.Errorf("%w: unsupported or corrupt image", ErrBadRequest)
)
