package render

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	odtMediaType     = "application/vnd.oasis.opendocument.text"
	odtMimetypeEntry = "mimetype"
	odtContentEntry  = "content.xml"
	odtStylesEntry   = "styles.xml"
)

// ODT merges into OpenDocument text templates. Placeholders are expanded in
// content.xml and styles.xml; every other entry is copied untouched.
type ODT struct{}

func (ODT) Extension() string   { return "odt" }
func (ODT) ContentType() string { return odtMediaType }

func (ODT) Check(template []byte) error {
	_, err := openODT(template)
	return err
}

func (ODT) Merge(template []byte, data MergeData) ([]byte, error) {
	reader, err := openODT(template)
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	writer := zip.NewWriter(&output)
	defer writer.Close()

	for _, file := range reader.File {
		name := normalizeZipName(file.Name)
		if name != odtContentEntry && name != odtStylesEntry {
			if err := writer.Copy(file); err != nil {
				return nil, fmt.Errorf("%w: copy %s: %v", ErrRenderFailure, name, err)
			}
			continue
		}

		updated, err := mergeODTPart(file, data)
		if err != nil {
			return nil, err
		}
		if err := writeZipFile(writer, file, updated); err != nil {
			return nil, fmt.Errorf("%w: write %s: %v", ErrRenderFailure, name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	return output.Bytes(), nil
}

// openODT validates the container: a zip whose first entry is the ODT
// mimetype and which carries content.xml.
func openODT(template []byte) (*zip.Reader, error) {
	reader, err := zip.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateUnavailable, err)
	}
	if len(reader.File) == 0 || normalizeZipName(reader.File[0].Name) != odtMimetypeEntry {
		return nil, fmt.Errorf("%w: mimetype entry missing", ErrTemplateUnavailable)
	}
	mimetype, err := readZipFile(reader.File[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read mimetype: %v", ErrTemplateUnavailable, err)
	}
	if strings.TrimSpace(string(mimetype)) != odtMediaType {
		return nil, fmt.Errorf("%w: unexpected mimetype %q", ErrTemplateUnavailable, mimetype)
	}
	for _, file := range reader.File {
		if normalizeZipName(file.Name) == odtContentEntry {
			return reader, nil
		}
	}
	return nil, fmt.Errorf("%w: %s missing", ErrTemplateUnavailable, odtContentEntry)
}

func mergeODTPart(file *zip.File, data MergeData) ([]byte, error) {
	name := normalizeZipName(file.Name)
	content, err := readZipFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrTemplateUnavailable, name, err)
	}

	part, err := parseXMLPart(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrTemplateUnavailable, name, err)
	}

	scoped := bindings{}
	if err := expandSections(part.root, data.Sections, scoped); err != nil {
		var unbalanced *unbalancedSectionError
		if errors.As(err, &unbalanced) {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplateUnavailable, name, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailure, name, err)
	}
	substituteTokens(part.root, data.Values, scoped)

	rendered, err := part.encode()
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrRenderFailure, name, err)
	}
	if err := checkWellFormed(rendered); err != nil {
		return nil, fmt.Errorf("%w: %s is not well formed: %v", ErrRenderFailure, name, err)
	}
	return []byte(rendered), nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// writeZipFile writes content under a copy of the source entry's header so
// names, timestamps and compression follow the template.
func writeZipFile(writer *zip.Writer, source *zip.File, content []byte) error {
	header := source.FileHeader
	header.Name = normalizeZipName(source.Name)

	dst, err := writer.CreateHeader(&header)
	if err != nil {
		return err
	}
	_, err = dst.Write(content)
	return err
}

func normalizeZipName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}
