package storage

import (
	"context"
	"database/sql"
)

const insertAuditLog = `-- name: InsertAuditLog :one
INSERT INTO audit_log (user_id, action, entity, entity_id, diff_json, at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id
`

type InsertAuditLogParams struct {
	UserID   sql.NullInt64
	Action   string
	Entity   string
	EntityID string
	DiffJSON string
	At       string
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertAuditLog,
		arg.UserID,
		arg.Action,
		arg.Entity,
		arg.EntityID,
		arg.DiffJSON,
		arg.At,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listAuditLog = `-- name: ListAuditLog :many
SELECT id, user_id, action, entity, entity_id, diff_json, at
FROM audit_log
ORDER BY at DESC, id DESC
LIMIT ?
`

func (q *Queries) ListAuditLog(ctx context.Context, limit int64) ([]AuditLog, error) {
	rows, err := q.db.QueryContext(ctx, listAuditLog, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditLog
	for rows.Next() {
		var i AuditLog
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Action,
			&i.Entity,
			&i.EntityID,
			&i.DiffJSON,
			&i.At,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
