package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

// EnsureExists creates the user row on first contact. Existing rows are left untouched.
func (r *PGRepo) EnsureExists(ctx context.Context, userID string) error {
	const query = `
INSERT INTO users (id, email, document_count, created_at, updated_at)
VALUES ($1, '', 0, now(), now())
ON CONFLICT (id) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query, userID)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, email, document_count, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1`
	var user User
	var email sql.NullString
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&email,
		&user.DocumentCount,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if email.Valid {
		user.Email = email.String
	}
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	} else {
		user.UpdatedAt = time.Now().UTC()
	}
	return user, nil
}

// SetDocumentCount overwrites the stored counter with a recomputed value.
func (r *PGRepo) SetDocumentCount(ctx context.Context, userID string, count int) error {
	const query = `
UPDATE users
SET document_count = $1, updated_at = now()
WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, count, userID)
	return err
}

func (r *PGRepo) ListIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT id FROM users ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
