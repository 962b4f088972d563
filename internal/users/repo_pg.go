package users

import (
	"context"
	"database/sql"
	"errors"
)

const (
	userColumns = `id, email, full_name, picture_url, provider, created_at, last_login_at`

	// xmax is zero only for freshly inserted rows.
	upsertUser = `
INSERT INTO users (id, email, full_name, picture_url, provider, created_at, last_login_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = COALESCE(EXCLUDED.full_name, users.full_name),
  picture_url = COALESCE(EXCLUDED.picture_url, users.picture_url),
  last_login_at = now()
RETURNING ` + userColumns + `, (xmax = 0)`

	selectUser = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, user User) (User, bool, error) {
	var created bool
	row := r.DB.QueryRowContext(ctx, upsertUser,
		user.ID,
		user.Email,
		nullable(user.FullName),
		nullable(user.PictureURL),
		user.Provider,
	)
	stored, err := scanUser(row, &created)
	if err != nil {
		return User{}, false, err
	}
	return stored, created, nil
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	user, err := scanUser(r.DB.QueryRowContext(ctx, selectUser, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func scanUser(row *sql.Row, extra ...any) (User, error) {
	var (
		u                    User
		fullName, pictureURL sql.NullString
	)
	dest := append([]any{&u.ID, &u.Email, &fullName, &pictureURL, &u.Provider, &u.CreatedAt, &u.LastLoginAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return User{}, err
	}
	u.FullName = fullName.String
	u.PictureURL = pictureURL.String
	return u, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
