package storage

import (
	"context"
	"database/sql"
)

const eventColumns = `id, title, start_at, end_at, all_day, source, color, notes, created_by, assignee_id`

func scanEvent(row rowScanner) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.StartAt, &e.EndAt, &e.AllDay, &e.Source, &e.Color, &e.Notes, &e.CreatedBy, &e.AssigneeID)
	return e, err
}

const listEvents = `-- name: ListEvents :many
SELECT ` + eventColumns + ` FROM events
WHERE (?1 IS NULL OR end_at >= ?1)
  AND (?2 IS NULL OR start_at <= ?2)
ORDER BY start_at ASC, id ASC
`

type ListEventsParams struct {
	WindowStart sql.NullString
	WindowEnd   sql.NullString
}

func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, arg.WindowStart, arg.WindowEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const getEvent = `-- name: GetEvent :one
SELECT ` + eventColumns + ` FROM events WHERE id = ?
`

func (q *Queries) GetEvent(ctx context.Context, id int64) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, getEvent, id))
}

type EventParams struct {
	Title      string
	StartAt    string
	EndAt      string
	AllDay     bool
	Source     string
	Color      sql.NullString
	Notes      sql.NullString
	CreatedBy  sql.NullString
	AssigneeID sql.NullInt64
}

const createEvent = `-- name: CreateEvent :one
INSERT INTO events (title, start_at, end_at, all_day, source, color, notes, created_by, assignee_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + eventColumns + `
`

func (q *Queries) CreateEvent(ctx context.Context, arg EventParams) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, createEvent,
		arg.Title,
		arg.StartAt,
		arg.EndAt,
		arg.AllDay,
		arg.Source,
		arg.Color,
		arg.Notes,
		arg.CreatedBy,
		arg.AssigneeID,
	))
}

const updateEvent = `-- name: UpdateEvent :one
UPDATE events
SET title = ?, start_at = ?, end_at = ?, all_day = ?, source = ?, color = ?, notes = ?, created_by = ?, assignee_id = ?
WHERE id = ?
RETURNING ` + eventColumns + `
`

func (q *Queries) UpdateEvent(ctx context.Context, id int64, arg EventParams) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, updateEvent,
		arg.Title,
		arg.StartAt,
		arg.EndAt,
		arg.AllDay,
		arg.Source,
		arg.Color,
		arg.Notes,
		arg.CreatedBy,
		arg.AssigneeID,
		id,
	))
}

const deleteEvent = `-- name: DeleteEvent :execrows
DELETE FROM events WHERE id = ?
`

func (q *Queries) DeleteEvent(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEvent, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
