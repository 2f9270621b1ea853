// Package render merges CV data into office document templates.
package render

import (
	"fmt"
	"strings"

	"cvio-backend/cv/model"
)

// Placeholder names understood by CV templates. Scalar fields are written as
// {{FAMILY_NAME}}; the skill list is a {{#SKILLS}}...{{/SKILLS}} section.
const (
	TokenFullName = "FULL_NAME"

	SectionSkills      = "SKILLS"
	TokenSkillID       = "SKILL_ID"
	TokenSkillName     = "SKILL_NAME"
	TokenSkillCategory = "SKILL_CATEGORY"
	TokenSkillRating   = "SKILL_RATING"
)

var fieldTokens = map[model.Field]string{
	model.FieldFamilyName:   "FAMILY_NAME",
	model.FieldGivenName:    "GIVEN_NAME",
	model.FieldLocality:     "LOCALITY",
	model.FieldPlaceOfBirth: "PLACE_OF_BIRTH",
	model.FieldFamilyStatus: "FAMILY_STATUS",
	model.FieldLanguages:    "LANGUAGES",
}

// Section is a repeating block of a template, rendered once per item.
type Section struct {
	Name  string
	Items []map[string]string
}

// MergeData is the format independent input of a template merge.
type MergeData struct {
	Values   map[string]string
	Sections []Section
}

// Format merges data into a template of one document container type.
type Format interface {
	Extension() string
	ContentType() string
	// Check reports whether template is a usable template of this format.
	Check(template []byte) error
	// Merge returns the template with data applied. Errors wrap
	// ErrTemplateUnavailable or ErrRenderFailure.
	Merge(template []byte, data MergeData) ([]byte, error)
}

// Engine renders CV data into documents.
type Engine struct {
	format Format
}

// NewEngine returns an Engine producing OpenDocument text.
func NewEngine() *Engine {
	return &Engine{format: ODT{}}
}

// NewEngineWithFormat returns an Engine for another container format.
func NewEngineWithFormat(format Format) *Engine {
	return &Engine{format: format}
}

// Render merges fields and skills into tpl. Missing fields render as empty
// text and skills appear in the given order.
func (e *Engine) Render(fields map[string]string, skills []model.ResolvedSkill, tpl TemplateHandle) (model.GeneratedDocument, error) {
	templateBytes, err := e.load(tpl)
	if err != nil {
		return model.GeneratedDocument{}, err
	}

	content, err := e.format.Merge(templateBytes, BuildMergeData(fields, skills))
	if err != nil {
		return model.GeneratedDocument{}, err
	}

	return model.GeneratedDocument{
		Content:     content,
		ContentType: e.format.ContentType(),
		FileName:    "cv." + e.format.Extension(),
	}, nil
}

// CheckTemplate loads tpl and verifies the format can merge into it.
func (e *Engine) CheckTemplate(tpl TemplateHandle) error {
	templateBytes, err := e.load(tpl)
	if err != nil {
		return err
	}
	if err := e.format.Check(templateBytes); err != nil {
		return err
	}
	_, err = e.format.Merge(templateBytes, BuildMergeData(nil, nil))
	return err
}

func (e *Engine) load(tpl TemplateHandle) ([]byte, error) {
	if tpl == nil {
		return nil, fmt.Errorf("%w: no template", ErrTemplateUnavailable)
	}
	data, err := tpl.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateUnavailable, tpl.Name(), err)
	}
	return data, nil
}

// BuildMergeData builds the placeholder table for a CV.
func BuildMergeData(fields map[string]string, skills []model.ResolvedSkill) MergeData {
	values := make(map[string]string, len(fieldTokens)+1)
	for _, field := range model.ScalarFields {
		values[fieldTokens[field]] = strings.TrimSpace(fields[string(field)])
	}
	values[TokenFullName] = strings.TrimSpace(values[fieldTokens[model.FieldGivenName]] + " " + values[fieldTokens[model.FieldFamilyName]])

	items := make([]map[string]string, 0, len(skills))
	for _, skill := range skills {
		items = append(items, map[string]string{
			TokenSkillID:       skill.SkillID,
			TokenSkillName:     skill.Name,
			TokenSkillCategory: skill.Category,
			TokenSkillRating:   skill.Rating.Label(),
		})
	}

	return MergeData{
		Values:   values,
		Sections: []Section{{Name: SectionSkills, Items: items}},
	}
}
