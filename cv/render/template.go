package render

import (
	"errors"
	"os"
	"path/filepath"

	"cvio-backend/assets"
)

// TemplateHandle locates a document template.
type TemplateHandle interface {
	Name() string
	Load() ([]byte, error)
}

// FileTemplate reads the template from disk on every Load.
type FileTemplate struct {
	Path string
}

func (t FileTemplate) Name() string { return t.Path }

func (t FileTemplate) Load() ([]byte, error) {
	if t.Path == "" {
		return nil, errors.New("template path is empty")
	}
	return os.ReadFile(filepath.Clean(t.Path))
}

// BytesTemplate serves a template held in memory.
type BytesTemplate struct {
	Label string
	Data  []byte
}

func (t BytesTemplate) Name() string { return t.Label }

func (t BytesTemplate) Load() ([]byte, error) {
	if len(t.Data) == 0 {
		return nil, errors.New("template is empty")
	}
	return t.Data, nil
}

// DefaultTemplate returns the CV template compiled into the binary.
func DefaultTemplate() TemplateHandle {
	return BytesTemplate{Label: "embedded:" + assets.CVTemplateName, Data: assets.CVTemplate}
}

// TemplateFromPath returns a FileTemplate for path, or DefaultTemplate when
// path is empty.
func TemplateFromPath(path string) TemplateHandle {
	if path == "" {
		return DefaultTemplate()
	}
	return FileTemplate{Path: path}
}
