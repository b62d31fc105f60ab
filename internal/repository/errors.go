package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
	// ErrUnknownPermission is returned when a grant names a permission that
	// does not exist.
	ErrUnknownPermission = errors.New("unknown permission")
)
