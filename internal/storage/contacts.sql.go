package storage

import (
	"context"
	"database/sql"
)

const contactColumns = `id, name, category, phone, hours, url, notes, last_verified_at`

func scanContact(row rowScanner) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.Category, &c.Phone, &c.Hours, &c.URL, &c.Notes, &c.LastVerifiedAt)
	return c, err
}

const listContacts = `-- name: ListContacts :many
SELECT ` + contactColumns + ` FROM contacts ORDER BY category ASC, name ASC, id ASC
`

func (q *Queries) ListContacts(ctx context.Context) ([]Contact, error) {
	rows, err := q.db.QueryContext(ctx, listContacts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const getContact = `-- name: GetContact :one
SELECT ` + contactColumns + ` FROM contacts WHERE id = ?
`

func (q *Queries) GetContact(ctx context.Context, id int64) (Contact, error) {
	return scanContact(q.db.QueryRowContext(ctx, getContact, id))
}

type ContactParams struct {
	Name           string
	Category       string
	Phone          sql.NullString
	Hours          sql.NullString
	URL            sql.NullString
	Notes          sql.NullString
	LastVerifiedAt sql.NullString
}

const createContact = `-- name: CreateContact :one
INSERT INTO contacts (name, category, phone, hours, url, notes, last_verified_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + contactColumns + `
`

func (q *Queries) CreateContact(ctx context.Context, arg ContactParams) (Contact, error) {
	return scanContact(q.db.QueryRowContext(ctx, createContact,
		arg.Name,
		arg.Category,
		arg.Phone,
		arg.Hours,
		arg.URL,
		arg.Notes,
		arg.LastVerifiedAt,
	))
}

const updateContact = `-- name: UpdateContact :one
UPDATE contacts
SET name = ?, category = ?, phone = ?, hours = ?, url = ?, notes = ?, last_verified_at = ?
WHERE id = ?
RETURNING ` + contactColumns + `
`

func (q *Queries) UpdateContact(ctx context.Context, id int64, arg ContactParams) (Contact, error) {
	return scanContact(q.db.QueryRowContext(ctx, updateContact,
		arg.Name,
		arg.Category,
		arg.Phone,
		arg.Hours,
		arg.URL,
		arg.Notes,
		arg.LastVerifiedAt,
		id,
	))
}

const deleteContact = `-- name: DeleteContact :execrows
DELETE FROM contacts WHERE id = ?
`

func (q *Queries) DeleteContact(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteContact, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
