package cvs

import "context"

// Repo defines persistence operations for CV documents.
type Repo interface {
	Create(ctx context.Context, cv CV) error
	Get(ctx context.Context, id string) (CV, error)
	Update(ctx context.Context, cv CV) error
	Delete(ctx context.Context, id string) error
	// List returns CVs whose scalar fields contain searchTerm. An empty term
	// lists everything.
	List(ctx context.Context, searchTerm string) ([]CV, error)
	// Suggestions returns distinct scalar field values starting with prefix.
	Suggestions(ctx context.Context, prefix string, limit int) ([]string, error)
}
