package users

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo stores profiles in the users table.
type PGRepo struct {
	DB *sql.DB
}

const upsertUserSQL = `
INSERT INTO users (id, email, full_name, given_name, family_name, picture_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  given_name = EXCLUDED.given_name,
  family_name = EXCLUDED.family_name,
  picture_url = EXCLUDED.picture_url,
  updated_at = now()`

const getUserSQL = `
SELECT id, email,
  COALESCE(full_name, ''), COALESCE(given_name, ''), COALESCE(family_name, ''), COALESCE(picture_url, ''),
  created_at, COALESCE(updated_at, created_at)
FROM users
WHERE id = $1`

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	_, err := r.DB.ExecContext(ctx, upsertUserSQL,
		user.ID,
		user.Email,
		nullable(user.FullName),
		nullable(user.GivenName),
		nullable(user.FamilyName),
		nullable(user.PictureURL),
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx, getUserSQL, userID).Scan(
		&u.ID, &u.Email,
		&u.FullName, &u.GivenName, &u.FamilyName, &u.PictureURL,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// nullable stores empty profile fields as NULL.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
