package storage

import (
	"context"
	"database/sql"
	"strings"
)

const linkColumns = `id, title, url, tags, click_count, last_accessed_at, owner_id`

func scanLink(row rowScanner) (Link, error) {
	var l Link
	err := row.Scan(&l.ID, &l.Title, &l.URL, &l.Tags, &l.ClickCount, &l.LastAccessedAt, &l.OwnerID)
	return l, err
}

func collectLinks(rows *sql.Rows, err error) ([]Link, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const listLinks = `-- name: ListLinks :many
SELECT ` + linkColumns + ` FROM links ORDER BY title ASC, id ASC
`

func (q *Queries) ListLinks(ctx context.Context) ([]Link, error) {
	return collectLinks(q.db.QueryContext(ctx, listLinks))
}

const getLink = `-- name: GetLink :one
SELECT ` + linkColumns + ` FROM links WHERE id = ?
`

func (q *Queries) GetLink(ctx context.Context, id int64) (Link, error) {
	return scanLink(q.db.QueryRowContext(ctx, getLink, id))
}

const createLink = `-- name: CreateLink :one
INSERT INTO links (title, url, tags, owner_id) VALUES (?, ?, ?, ?)
RETURNING ` + linkColumns + `
`

type CreateLinkParams struct {
	Title   string
	URL     string
	Tags    string
	OwnerID sql.NullInt64
}

func (q *Queries) CreateLink(ctx context.Context, arg CreateLinkParams) (Link, error) {
	return scanLink(q.db.QueryRowContext(ctx, createLink, arg.Title, arg.URL, arg.Tags, arg.OwnerID))
}

const updateLink = `-- name: UpdateLink :one
UPDATE links SET title = ?, url = ?, tags = ? WHERE id = ?
RETURNING ` + linkColumns + `
`

type UpdateLinkParams struct {
	Title string
	URL   string
	Tags  string
	ID    int64
}

func (q *Queries) UpdateLink(ctx context.Context, arg UpdateLinkParams) (Link, error) {
	return scanLink(q.db.QueryRowContext(ctx, updateLink, arg.Title, arg.URL, arg.Tags, arg.ID))
}

const deleteLink = `-- name: DeleteLink :execrows
DELETE FROM links WHERE id = ?
`

func (q *Queries) DeleteLink(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteLink, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const recordLinkClick = `-- name: RecordLinkClick :one
UPDATE links SET click_count = click_count + 1, last_accessed_at = ? WHERE id = ?
RETURNING ` + linkColumns + `
`

func (q *Queries) RecordLinkClick(ctx context.Context, at string, id int64) (Link, error) {
	return scanLink(q.db.QueryRowContext(ctx, recordLinkClick, at, id))
}

type SearchLinksParams struct {
	Query string
	Tags  []string
}

// SearchLinks matches title or url case-insensitively and requires every tag.
// The tag filter has a variable arity so the statement is assembled here.
func (q *Queries) SearchLinks(ctx context.Context, arg SearchLinksParams) ([]Link, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT " + linkColumns + " FROM links WHERE 1 = 1")
	if arg.Query != "" {
		pattern := "%" + escapeLike(strings.ToLower(arg.Query)) + "%"
		sb.WriteString(` AND (lower(title) LIKE ? ESCAPE '\' OR lower(url) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	for _, tag := range arg.Tags {
		sb.WriteString(" AND EXISTS (SELECT 1 FROM json_each(links.tags) WHERE json_each.value = ?)")
		args = append(args, tag)
	}
	sb.WriteString(" ORDER BY click_count DESC, title ASC, id ASC")
	return collectLinks(q.db.QueryContext(ctx, sb.String(), args...))
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
