package render

import "errors"

var (
	// ErrTemplateUnavailable is returned when the template cannot be loaded or
	// is not a usable document template.
	ErrTemplateUnavailable = errors.New("template unavailable")
	// ErrRenderFailure is returned when merging produced no valid document.
	ErrRenderFailure = errors.New("render failed")
)
