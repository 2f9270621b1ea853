package cvs

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"cvio-backend/cv/model"
	"cvio-backend/internal/shared/storage/search"
)

// IndexMapping is the Elasticsearch mapping of the CV index. Scalar fields
// are searchable text with a keyword sub-field; skill ratings are stored but
// not indexed.
const IndexMapping = `{
  "mappings": {
    "dynamic": false,
    "properties": {
      "id": {"type": "keyword"},
      "familyName": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "givenName": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "locality": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "placeOfBirth": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "familyStatus": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "languages": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "skills": {"type": "object", "enabled": false}
    }
  }
}`

const esMaxResults = 1000

// ESRepo implements Repo on an Elasticsearch index.
type ESRepo struct {
	Client *search.Client
	Index  string
}

// EnsureIndex creates the CV index when missing.
func (r *ESRepo) EnsureIndex(ctx context.Context) error {
	return r.Client.EnsureIndex(ctx, r.Index, IndexMapping)
}

// Create indexes a new CV document.
func (r *ESRepo) Create(ctx context.Context, cv CV) error {
	return r.Client.Put(ctx, r.Index, cv.ID, cv.Document)
}

// Get fetches a CV document by id.
func (r *ESRepo) Get(ctx context.Context, id string) (CV, error) {
	src, err := r.Client.Get(ctx, r.Index, id)
	if err != nil {
		if errors.Is(err, search.ErrNotFound) {
			return CV{}, ErrNotFound
		}
		return CV{}, err
	}
	return CV{ID: id, Document: src}, nil
}

// Update overwrites an existing CV document.
func (r *ESRepo) Update(ctx context.Context, cv CV) error {
	if _, err := r.Get(ctx, cv.ID); err != nil {
		return err
	}
	return r.Client.Put(ctx, r.Index, cv.ID, cv.Document)
}

// Delete removes a CV document.
func (r *ESRepo) Delete(ctx context.Context, id string) error {
	err := r.Client.Delete(ctx, r.Index, id)
	if errors.Is(err, search.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// List runs a wildcard query_string search over the scalar fields.
func (r *ESRepo) List(ctx context.Context, searchTerm string) ([]CV, error) {
	query := map[string]any{"match_all": map[string]any{}}
	if term := strings.TrimSpace(searchTerm); term != "" {
		query = map[string]any{
			"query_string": map[string]any{
				"query":            "*" + escapeQueryString(term) + "*",
				"fields":           scalarFieldNames(""),
				"analyze_wildcard": true,
			},
		}
	}
	hits, err := r.Client.Search(ctx, r.Index, query, esMaxResults)
	if err != nil {
		return nil, err
	}
	return hitsToCVs(hits), nil
}

// Suggestions runs a case-insensitive prefix query on the keyword
// sub-fields and collects the matching values.
func (r *ESRepo) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	should := make([]any, 0, len(model.ScalarFields))
	for _, field := range scalarFieldNames(".keyword") {
		should = append(should, map[string]any{
			"prefix": map[string]any{
				field: map[string]any{"value": prefix, "case_insensitive": true},
			},
		})
	}
	query := map[string]any{
		"bool": map[string]any{"should": should, "minimum_should_match": 1},
	}
	hits, err := r.Client.Search(ctx, r.Index, query, esMaxResults)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, cv := range hitsToCVs(hits) {
		for _, v := range cv.suggestions(prefix) {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func hitsToCVs(hits []search.Hit) []CV {
	out := make([]CV, 0, len(hits))
	for _, h := range hits {
		out = append(out, CV{ID: h.ID, Document: json.RawMessage(h.Source)})
	}
	return out
}

func scalarFieldNames(suffix string) []string {
	out := make([]string, 0, len(model.ScalarFields))
	for _, f := range model.ScalarFields {
		out = append(out, string(f)+suffix)
	}
	return out
}

// escapeQueryString escapes the query_string reserved characters. < and >
// cannot be escaped and are dropped.
func escapeQueryString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '<', '>':
			continue
		case '+', '-', '=', '&', '|', '!', '(', ')', '{', '}', '[', ']', '^', '"', '~', '*', '?', ':', '\\', '/', ' ':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ Repo = (*ESRepo)(nil)
