package storage

import (
	"context"
	"database/sql"
)

const insertAssetSnapshot = `-- name: InsertAssetSnapshot :one
INSERT INTO asset_snapshot (date, account_name, balance, currency)
VALUES (?, ?, ?, ?)
RETURNING id
`

type InsertAssetSnapshotParams struct {
	Date        string
	AccountName string
	Balance     float64
	Currency    string
}

func (q *Queries) InsertAssetSnapshot(ctx context.Context, arg InsertAssetSnapshotParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertAssetSnapshot,
		arg.Date,
		arg.AccountName,
		arg.Balance,
		arg.Currency,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listAssetSnapshots = `-- name: ListAssetSnapshots :many
SELECT id, date, account_name, balance, currency
FROM asset_snapshot
WHERE (?1 IS NULL OR date >= ?1)
  AND (?2 IS NULL OR date < ?2)
ORDER BY date DESC, id DESC
`

type ListAssetSnapshotsParams struct {
	FromDate   sql.NullString
	BeforeDate sql.NullString
}

func (q *Queries) ListAssetSnapshots(ctx context.Context, arg ListAssetSnapshotsParams) ([]AssetSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, listAssetSnapshots, arg.FromDate, arg.BeforeDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AssetSnapshot
	for rows.Next() {
		var i AssetSnapshot
		if err := rows.Scan(
			&i.ID,
			&i.Date,
			&i.AccountName,
			&i.Balance,
			&i.Currency,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countAssetSnapshots = `-- name: CountAssetSnapshots :one
SELECT COUNT(*) FROM asset_snapshot
`

func (q *Queries) CountAssetSnapshots(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAssetSnapshots)
	var count int64
	err := row.Scan(&count)
	return count, err
}
