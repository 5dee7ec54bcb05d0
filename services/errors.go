package services

import "errors"

// Domain error taxonomy. Handlers map these onto HTTP statuses; everything
// else is a dependency or persistence failure.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("access denied")
	ErrInvalidState    = errors.New("invalid state for requested transition")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidAssignee = errors.New("assigned user must be a team member of the project")
)
