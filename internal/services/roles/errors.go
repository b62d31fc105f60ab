package roles

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Manager matches exactly one of these
// with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("role not found")
	ErrPersistence = errors.New("persistence failure")
)

// Error is the concrete error type returned by Manager.
type Error struct {
	Kind    error
	Op      string
	Message string
	// Name is the offending role or permission name, when there is one.
	Name string
	// Count is the number of users holding the role for delete conflicts.
	Count int
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// KindName returns a short label for err's kind ("validation", "conflict",
// "forbidden", "not_found", "persistence"), or "" when err is not a manager error.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return ""
}

func validationError(op, name, format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Op: op, Name: name, Message: fmt.Sprintf(format, args...)}
}

func duplicateRoleError(op, name string) *Error {
	return &Error{Kind: ErrConflict, Op: op, Name: name, Message: "role already exists"}
}

func roleInUseError(op, name string, users int) *Error {
	noun := "users"
	if users == 1 {
		noun = "user"
	}
	return &Error{
		Kind:    ErrConflict,
		Op:      op,
		Name:    name,
		Count:   users,
		Message: fmt.Sprintf("role assigned to %d %s", users, noun),
	}
}

func coreRoleError(op, name string) *Error {
	return &Error{Kind: ErrForbidden, Op: op, Name: name, Message: fmt.Sprintf("core role %q cannot be modified", name)}
}

func notFoundError(op, roleID string) *Error {
	return &Error{Kind: ErrNotFound, Op: op, Message: fmt.Sprintf("role %s not found", roleID)}
}

func persistenceError(op string) *Error {
	return &Error{Kind: ErrPersistence, Op: op, Message: fmt.Sprintf("failed to %s role", op)}
}
