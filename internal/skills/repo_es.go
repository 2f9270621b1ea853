package skills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cvio-backend/internal/shared/storage/search"
)

// IndexMapping is the Elasticsearch mapping of the skill index.
const IndexMapping = `{
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "category": {"type": "keyword"},
      "createdAt": {"type": "date"}
    }
  }
}`

// Catalogs larger than this are truncated by List.
const esCatalogSize = 10000

// ESRepo implements Repo on an Elasticsearch index.
type ESRepo struct {
	Client *search.Client
	Index  string
}

// EnsureIndex creates the skill index when missing.
func (r *ESRepo) EnsureIndex(ctx context.Context) error {
	return r.Client.EnsureIndex(ctx, r.Index, IndexMapping)
}

// Create indexes the skill unless its id is taken.
func (r *ESRepo) Create(ctx context.Context, s Skill) error {
	if err := r.Client.Create(ctx, r.Index, s.ID, s); err != nil {
		if errors.Is(err, search.ErrConflict) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Save indexes the skill under its id.
func (r *ESRepo) Save(ctx context.Context, s Skill) error {
	return r.Client.Put(ctx, r.Index, s.ID, s)
}

// Get fetches a skill by id.
func (r *ESRepo) Get(ctx context.Context, id string) (Skill, error) {
	src, err := r.Client.Get(ctx, r.Index, id)
	if err != nil {
		if errors.Is(err, search.ErrNotFound) {
			return Skill{}, ErrNotFound
		}
		return Skill{}, err
	}
	var s Skill
	if err := json.Unmarshal(src, &s); err != nil {
		return Skill{}, fmt.Errorf("decode skill %s: %w", id, err)
	}
	s.ID = id
	return s, nil
}

// List returns the full catalog.
func (r *ESRepo) List(ctx context.Context) ([]Skill, error) {
	hits, err := r.Client.Search(ctx, r.Index, map[string]any{"match_all": map[string]any{}}, esCatalogSize)
	if err != nil {
		return nil, err
	}
	out := make([]Skill, 0, len(hits))
	for _, h := range hits {
		var s Skill
		if err := json.Unmarshal(h.Source, &s); err != nil {
			return nil, fmt.Errorf("decode skill %s: %w", h.ID, err)
		}
		s.ID = h.ID
		out = append(out, s)
	}
	sortSkills(out)
	return out, nil
}

var _ Repo = (*ESRepo)(nil)
