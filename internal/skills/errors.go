package skills

import "errors"

var (
	// ErrNotFound indicates the skill does not exist.
	ErrNotFound = errors.New("skill not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a skill with the same id exists.
	ErrConflict = errors.New("skill already exists")
)
