package skills

import "context"

// Repo defines persistence operations for the skill catalog.
type Repo interface {
	// Create inserts the skill and fails with ErrConflict when its id is taken.
	Create(ctx context.Context, s Skill) error
	// Save inserts the skill or replaces the one with the same id.
	Save(ctx context.Context, s Skill) error
	Get(ctx context.Context, id string) (Skill, error)
	// List returns the full catalog ordered by name.
	List(ctx context.Context) ([]Skill, error)
}
