package cvs

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"cvio-backend/cv/model"
)

// PGRepo implements Repo using Postgres. Documents live in a json column.
type PGRepo struct {
	DB *sql.DB
}

// scalarKeyList is the SQL list of searchable document keys.
var scalarKeyList = func() string {
	quoted := make([]string, 0, len(model.ScalarFields))
	for _, f := range model.ScalarFields {
		quoted = append(quoted, "'"+string(f)+"'")
	}
	return strings.Join(quoted, ", ")
}()

// Create inserts a new CV.
func (r *PGRepo) Create(ctx context.Context, cv CV) error {
	const query = `
INSERT INTO cvs (id, document, created_at, updated_at)
VALUES ($1, $2, $3, $4)`
	_, err := r.DB.ExecContext(ctx, query, cv.ID, string(cv.Document), cv.CreatedAt, cv.UpdatedAt)
	return err
}

// Get fetches a CV by id.
func (r *PGRepo) Get(ctx context.Context, id string) (CV, error) {
	const query = `
SELECT id, document, created_at, updated_at
FROM cvs
WHERE id = $1`
	var cv CV
	var document string
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&cv.ID, &document, &cv.CreatedAt, &cv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CV{}, ErrNotFound
		}
		return CV{}, err
	}
	cv.Document = []byte(document)
	return cv, nil
}

// Update overwrites the document of an existing CV.
func (r *PGRepo) Update(ctx context.Context, cv CV) error {
	const query = `
UPDATE cvs
SET document = $2, updated_at = $3
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, cv.ID, string(cv.Document), cv.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a CV.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cvs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns CVs oldest first, filtered by a case-insensitive substring
// match on the scalar fields.
func (r *PGRepo) List(ctx context.Context, searchTerm string) ([]CV, error) {
	query := `
SELECT id, document, created_at, updated_at
FROM cvs
WHERE $1 = ''
   OR EXISTS (
       SELECT 1 FROM json_each_text(cvs.document) AS f(key, value)
       WHERE f.key IN (` + scalarKeyList + `) AND f.value ILIKE '%' || $1 || '%'
   )
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, escapeLike(strings.TrimSpace(searchTerm)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CV
	for rows.Next() {
		var cv CV
		var document string
		if err := rows.Scan(&cv.ID, &document, &cv.CreatedAt, &cv.UpdatedAt); err != nil {
			return nil, err
		}
		cv.Document = []byte(document)
		out = append(out, cv)
	}
	return out, rows.Err()
}

// Suggestions returns distinct scalar values starting with prefix.
func (r *PGRepo) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
SELECT DISTINCT f.value
FROM cvs, json_each_text(cvs.document) AS f(key, value)
WHERE f.key IN (` + scalarKeyList + `) AND f.value ILIKE $1 || '%'
ORDER BY f.value
LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, escapeLike(prefix), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ Repo = (*PGRepo)(nil)
