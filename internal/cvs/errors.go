package cvs

import "errors"

var (
	// ErrNotFound indicates the CV does not exist.
	ErrNotFound = errors.New("cv not found")

	// ErrInvalidInput indicates a malformed or schema-violating CV document.
	ErrInvalidInput = errors.New("invalid input")
)
