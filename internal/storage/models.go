package storage

import "database/sql"

type AssetSnapshot struct {
	ID          int64
	Date        string
	AccountName string
	Balance     float64
	Currency    string
}

type User struct {
	ID           int64
	Name         string
	Role         string
	Email        sql.NullString
	PasswordHash sql.NullString
}

type Link struct {
	ID             int64
	Title          string
	URL            string
	Tags           string
	ClickCount     int64
	LastAccessedAt sql.NullString
	OwnerID        sql.NullInt64
}

type Contact struct {
	ID             int64
	Name           string
	Category       string
	Phone          sql.NullString
	Hours          sql.NullString
	URL            sql.NullString
	Notes          sql.NullString
	LastVerifiedAt sql.NullString
}

type Todo struct {
	ID          int64
	Title       string
	Status      string
	Due         sql.NullString
	AssigneeID  sql.NullInt64
	RepeatRule  sql.NullString
	ListID      sql.NullString
	CompletedAt sql.NullString
}

type Event struct {
	ID         int64
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

type AuditLog struct {
	ID       int64
	UserID   sql.NullInt64
	Action   string
	Entity   string
	EntityID string
	DiffJSON string
	At       string
}
