package skills

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Skill
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Skill)}
}

// Create stores a skill with a new id.
func (r *MemoryRepo) Create(ctx context.Context, s Skill) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[s.ID]; exists {
		return ErrConflict
	}
	r.data[s.ID] = s
	return nil
}

// Save stores or replaces a skill.
func (r *MemoryRepo) Save(ctx context.Context, s Skill) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.data[s.ID]; ok && !existing.CreatedAt.IsZero() {
		s.CreatedAt = existing.CreatedAt
	}
	r.data[s.ID] = s
	return nil
}

// Get returns a skill by id.
func (r *MemoryRepo) Get(ctx context.Context, id string) (Skill, error) {
	if err := ctx.Err(); err != nil {
		return Skill{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.data[id]
	if !ok {
		return Skill{}, ErrNotFound
	}
	return s, nil
}

// List returns all skills ordered by name, then id.
func (r *MemoryRepo) List(ctx context.Context) ([]Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Skill, 0, len(r.data))
	for _, s := range r.data {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sortSkills(out)
	return out, nil
}

func sortSkills(list []Skill) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}

var _ Repo = (*MemoryRepo)(nil)
