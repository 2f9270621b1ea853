package export

import "errors"

var (
	// ErrNotFound indicates the CV to export does not exist.
	ErrNotFound = errors.New("cv not found")

	// ErrTemplateUnavailable indicates the server template could not be used.
	ErrTemplateUnavailable = errors.New("template unavailable")

	// ErrRenderFailed indicates the merge produced no document.
	ErrRenderFailed = errors.New("render failed")
)
