package skills

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a skill; an existing id yields ErrConflict.
func (r *PGRepo) Create(ctx context.Context, s Skill) error {
	const query = `
INSERT INTO skills (id, name, category, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`
	res, err := r.DB.ExecContext(ctx, query, s.ID, s.Name, s.Category, s.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Save upserts a skill.
func (r *PGRepo) Save(ctx context.Context, s Skill) error {
	const query = `
INSERT INTO skills (id, name, category, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category`
	_, err := r.DB.ExecContext(ctx, query, s.ID, s.Name, s.Category, s.CreatedAt)
	return err
}

// Get fetches a skill by id.
func (r *PGRepo) Get(ctx context.Context, id string) (Skill, error) {
	const query = `
SELECT id, name, category, created_at
FROM skills
WHERE id = $1`
	var s Skill
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Category, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Skill{}, ErrNotFound
		}
		return Skill{}, err
	}
	return s, nil
}

// List returns the full catalog.
func (r *PGRepo) List(ctx context.Context) ([]Skill, error) {
	const query = `
SELECT id, name, category, created_at
FROM skills
ORDER BY name ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Skill{}
	for rows.Next() {
		var s Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
