package storage

import (
	"context"
	"database/sql"
)

const todoColumns = `id, title, status, due, assignee_id, repeat_rule, list_id, completed_at`

func scanTodo(row rowScanner) (Todo, error) {
	var t Todo
	err := row.Scan(&t.ID, &t.Title, &t.Status, &t.Due, &t.AssigneeID, &t.RepeatRule, &t.ListID, &t.CompletedAt)
	return t, err
}

const listTodos = `-- name: ListTodos :many
SELECT ` + todoColumns + ` FROM todos
ORDER BY status ASC, due IS NULL, due ASC, title ASC, id ASC
`

func (q *Queries) ListTodos(ctx context.Context) ([]Todo, error) {
	rows, err := q.db.QueryContext(ctx, listTodos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getTodo = `-- name: GetTodo :one
SELECT ` + todoColumns + ` FROM todos WHERE id = ?
`

func (q *Queries) GetTodo(ctx context.Context, id int64) (Todo, error) {
	return scanTodo(q.db.QueryRowContext(ctx, getTodo, id))
}

type TodoParams struct {
	Title       string
	Status      string
	Due         sql.NullString
	AssigneeID  sql.NullInt64
	RepeatRule  sql.NullString
	ListID      sql.NullString
	CompletedAt sql.NullString
}

const createTodo = `-- name: CreateTodo :one
INSERT INTO todos (title, status, due, assignee_id, repeat_rule, list_id, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + todoColumns + `
`

func (q *Queries) CreateTodo(ctx context.Context, arg TodoParams) (Todo, error) {
	return scanTodo(q.db.QueryRowContext(ctx, createTodo,
		arg.Title,
		arg.Status,
		arg.Due,
		arg.AssigneeID,
		arg.RepeatRule,
		arg.ListID,
		arg.CompletedAt,
	))
}

const updateTodo = `-- name: UpdateTodo :one
UPDATE todos
SET title = ?, status = ?, due = ?, assignee_id = ?, repeat_rule = ?, list_id = ?, completed_at = ?
WHERE id = ?
RETURNING ` + todoColumns + `
`

func (q *Queries) UpdateTodo(ctx context.Context, id int64, arg TodoParams) (Todo, error) {
	return scanTodo(q.db.QueryRowContext(ctx, updateTodo,
		arg.Title,
		arg.Status,
		arg.Due,
		arg.AssigneeID,
		arg.RepeatRule,
		arg.ListID,
		arg.CompletedAt,
		id,
	))
}

const deleteTodo = `-- name: DeleteTodo :execrows
DELETE FROM todos WHERE id = ?
`

func (q *Queries) DeleteTodo(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTodo, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
