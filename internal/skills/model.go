package skills

import (
	"time"

	"cvio-backend/cv/model"
)

// Skill is a catalog entry as stored.
type Skill struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Category  string    `json:"category" yaml:"category"`
	CreatedAt time.Time `json:"createdAt" yaml:"-"`
}

// Entry converts the skill to the catalog view used for resolution.
func (s Skill) Entry() model.SkillCatalogEntry {
	return model.SkillCatalogEntry{ID: s.ID, Name: s.Name, Category: s.Category}
}
