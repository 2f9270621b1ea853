package cvs

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	data  map[string]CV
	order []string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]CV)}
}

// Create stores a new CV.
func (r *MemoryRepo) Create(ctx context.Context, cv CV) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[cv.ID]; !exists {
		r.order = append(r.order, cv.ID)
	}
	r.data[cv.ID] = cv
	return nil
}

// Get returns a CV by id.
func (r *MemoryRepo) Get(ctx context.Context, id string) (CV, error) {
	if err := ctx.Err(); err != nil {
		return CV{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cv, ok := r.data[id]
	if !ok {
		return CV{}, ErrNotFound
	}
	return cv, nil
}

// Update overwrites an existing CV document.
func (r *MemoryRepo) Update(ctx context.Context, cv CV) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[cv.ID]
	if !ok {
		return ErrNotFound
	}
	cv.CreatedAt = existing.CreatedAt
	r.data[cv.ID] = cv
	return nil
}

// Delete removes a CV.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns matching CVs in creation order.
func (r *MemoryRepo) List(ctx context.Context, searchTerm string) ([]CV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CV, 0, len(r.order))
	for _, id := range r.order {
		cv := r.data[id]
		if cv.matches(searchTerm) {
			out = append(out, cv)
		}
	}
	return out, nil
}

// Suggestions returns sorted distinct values starting with prefix.
func (r *MemoryRepo) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	seen := map[string]struct{}{}
	for _, cv := range r.data {
		for _, v := range cv.suggestions(prefix) {
			seen[v] = struct{}{}
		}
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
