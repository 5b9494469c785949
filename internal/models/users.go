package models

import (
	"context"
	"time"
)

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUserParams holds the fields required to create a user.
type CreateUserParams struct {
	ID           string
	Email        string
	PasswordHash string
}

// CreateUser inserts a new user row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash)
VALUES (?, ?, ?)
`, arg.ID, arg.Email, arg.PasswordHash)
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, arg.ID)
}

// GetUserByID returns the user with the given id.
func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at FROM users WHERE id = ?
`, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// GetUserByEmail returns the user with the given email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at FROM users WHERE email = ?
`, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// ListUsersExcept returns all users other than the given id.
//
// Used by the collaborator picker when adding users to a project.
func (q *Queries) ListUsersExcept(ctx context.Context, id string) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT id, email, password_hash, created_at FROM users WHERE id != ? ORDER BY email
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
