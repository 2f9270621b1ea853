package cvs

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"cvio-backend/cv/model"
)

// CV is a stored CV document. Document is a JSON object carrying its own id.
type CV struct {
	ID        string
	Document  json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields decodes the document into a loosely typed map. Numbers keep their
// JSON text as json.Number.
func (cv CV) Fields() (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(cv.Document))
	dec.UseNumber()
	out := map[string]any{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	out["id"] = cv.ID
	return out, nil
}

// scalarValues returns the non-empty scalar field values of the document in
// schema order.
func (cv CV) scalarValues() []string {
	profile, err := model.ParseProfile(cv.ID, cv.Document)
	if err != nil {
		return nil
	}
	fields := profile.Fields()
	out := make([]string, 0, len(fields))
	for _, f := range model.ScalarFields {
		if v := fields[string(f)]; v != "" {
			out = append(out, v)
		}
	}
	return out
}

// matches reports whether any scalar value contains term, ignoring case.
func (cv CV) matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, v := range cv.scalarValues() {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// suggestions returns the scalar values starting with prefix, ignoring case.
func (cv CV) suggestions(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for _, v := range cv.scalarValues() {
		if strings.HasPrefix(strings.ToLower(v), prefix) {
			out = append(out, v)
		}
	}
	return out
}
