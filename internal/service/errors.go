package service

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all services. Handlers translate these sentinels
// into stable machine-readable codes; anything that does not match one of
// them is an infrastructure failure and maps to a generic server error.
var (
	// ErrUnauthorized covers missing, invalid, and expired tokens as well as
	// failed credential checks. Unknown email and wrong password produce the
	// same value so account existence is not leaked.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound covers both absent resources and resources the caller may
	// not see. The two are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput covers malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists is returned when registering an email twice.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidParent covers absent parents and parents that are not folders.
	ErrInvalidParent = errors.New("invalid parent")
)

// Specific validation failures. Each wraps its category sentinel so callers
// can match either the precise cause or the broad class with errors.Is.
var (
	ErrMissingEmail    = fmt.Errorf("%w: missing email", ErrInvalidInput)
	ErrMissingPassword = fmt.Errorf("%w: missing password", ErrInvalidInput)
	ErrMissingName     = fmt.Errorf("%w: missing name", ErrInvalidInput)
	ErrInvalidType     = fmt.Errorf("%w: missing or invalid type", ErrInvalidInput)
	ErrMissingData     = fmt.Errorf("%w: missing data", ErrInvalidInput)
	ErrInvalidData     = fmt.Errorf("%w: data is not valid base64", ErrInvalidInput)
	ErrFolderNoContent = fmt.Errorf("%w: a folder doesn't have content", ErrInvalidInput)
	ErrParentNotFound  = fmt.Errorf("%w: parent not found", ErrInvalidParent)
	ErrParentNotFolder = fmt.Errorf("%w: parent is not a folder", ErrInvalidParent)
)
