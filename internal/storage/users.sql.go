package storage

import (
	"context"
	"database/sql"
)

const userColumns = `id, name, role, email, password_hash`

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.Email, &u.PasswordHash)
	return u, err
}

const getUser = `-- name: GetUser :one
SELECT ` + userColumns + ` FROM users WHERE id = ?
`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users ORDER BY name ASC, id ASC
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (name, role, email) VALUES (?, ?, ?)
RETURNING ` + userColumns + `
`

type CreateUserParams struct {
	Name  string
	Role  string
	Email sql.NullString
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, createUser, arg.Name, arg.Role, arg.Email))
}
