package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"homeportal/internal/core"
	applog "homeportal/internal/log"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func deleted(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Asset snapshots

// InsertSnapshots writes every snapshot inside one transaction.
func (r *SQLiteRepository) InsertSnapshots(ctx context.Context, snapshots []core.AssetSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, s := range snapshots {
		if _, err := q.InsertAssetSnapshot(ctx, InsertAssetSnapshotParams{
			Date:        s.Date.String(),
			AccountName: s.AccountName,
			Balance:     s.Balance,
			Currency:    s.Currency,
		}); err != nil {
			return fmt.Errorf("insert snapshot %s/%s: %w", s.Date, s.AccountName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}

	applog.FromContext(ctx).InfoContext(ctx,
		"Asset snapshots saved to SQLite", "count", len(snapshots))
	return nil
}

// ListSnapshots returns snapshots inside the range, newest date first.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, dr core.DateRange) ([]core.AssetSnapshot, error) {
	var params ListAssetSnapshotsParams
	if dr.From != nil {
		params.FromDate = sql.NullString{String: dr.From.String(), Valid: true}
	}
	if dr.Before != nil {
		params.BeforeDate = sql.NullString{String: dr.Before.String(), Valid: true}
	}

	rows, err := r.queries.ListAssetSnapshots(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list asset snapshots: %w", err)
	}

	out := make([]core.AssetSnapshot, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("asset snapshot %d: %w", row.ID, err)
		}
		out = append(out, core.AssetSnapshot{
			ID:          row.ID,
			Date:        date,
			AccountName: row.AccountName,
			Balance:     row.Balance,
			Currency:    row.Currency,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) CountSnapshots(ctx context.Context) (int64, error) {
	n, err := r.queries.CountAssetSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("count asset snapshots: %w", err)
	}
	return n, nil
}

// Users

func userFromRow(u User) core.User {
	return core.User{ID: u.ID, Name: u.Name, Role: core.Role(u.Role), Email: stringPtr(u.Email)}
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, notFound(err))
	}
	return userFromRow(u), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", notFound(err))
	}
	return userFromRow(u), nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.User, 0, len(rows))
	for _, u := range rows {
		out = append(out, userFromRow(u))
	}
	return out, nil
}

// EnsureUser returns the user with u's email, creating it when absent.
func (r *SQLiteRepository) EnsureUser(ctx context.Context, u core.User) (core.User, error) {
	if u.Email != nil {
		existing, err := r.GetUserByEmail(ctx, *u.Email)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return core.User{}, err
		}
	}

	created, err := r.queries.CreateUser(ctx, CreateUserParams{
		Name:  u.Name,
		Role:  string(u.Role),
		Email: nullString(u.Email),
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	applog.FromContext(ctx).InfoContext(ctx,
		"User created", "id", created.ID, "role", created.Role)
	return userFromRow(created), nil
}

// Links

func linkFromRow(l Link) (core.Link, error) {
	tags := []string{}
	if err := json.Unmarshal([]byte(l.Tags), &tags); err != nil {
		return core.Link{}, fmt.Errorf("decode tags of link %d: %w", l.ID, err)
	}
	accessed, err := timestampPtr(l.LastAccessedAt)
	if err != nil {
		return core.Link{}, err
	}
	return core.Link{
		ID:             l.ID,
		Title:          l.Title,
		URL:            l.URL,
		Tags:           tags,
		ClickCount:     l.ClickCount,
		LastAccessedAt: accessed,
		OwnerID:        int64Ptr(l.OwnerID),
	}, nil
}

func linksFromRows(rows []Link) ([]core.Link, error) {
	out := make([]core.Link, 0, len(rows))
	for _, row := range rows {
		l, err := linkFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func (r *SQLiteRepository) ListLinks(ctx context.Context) ([]core.Link, error) {
	rows, err := r.queries.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return linksFromRows(rows)
}

func (r *SQLiteRepository) SearchLinks(ctx context.Context, query string, tags []string) ([]core.Link, error) {
	rows, err := r.queries.SearchLinks(ctx, SearchLinksParams{Query: query, Tags: tags})
	if err != nil {
		return nil, fmt.Errorf("search links: %w", err)
	}
	return linksFromRows(rows)
}

func (r *SQLiteRepository) GetLink(ctx context.Context, id int64) (core.Link, error) {
	row, err := r.queries.GetLink(ctx, id)
	if err != nil {
		return core.Link{}, fmt.Errorf("get link %d: %w", id, notFound(err))
	}
	return linkFromRow(row)
}

func (r *SQLiteRepository) CreateLink(ctx context.Context, l core.Link) (core.Link, error) {
	tags, err := encodeTags(l.Tags)
	if err != nil {
		return core.Link{}, err
	}
	row, err := r.queries.CreateLink(ctx, CreateLinkParams{
		Title:   l.Title,
		URL:     l.URL,
		Tags:    tags,
		OwnerID: nullInt64(l.OwnerID),
	})
	if err != nil {
		return core.Link{}, fmt.Errorf("create link: %w", err)
	}
	return linkFromRow(row)
}

func (r *SQLiteRepository) UpdateLink(ctx context.Context, l core.Link) (core.Link, error) {
	tags, err := encodeTags(l.Tags)
	if err != nil {
		return core.Link{}, err
	}
	row, err := r.queries.UpdateLink(ctx, UpdateLinkParams{Title: l.Title, URL: l.URL, Tags: tags, ID: l.ID})
	if err != nil {
		return core.Link{}, fmt.Errorf("update link %d: %w", l.ID, notFound(err))
	}
	return linkFromRow(row)
}

func (r *SQLiteRepository) DeleteLink(ctx context.Context, id int64) error {
	if err := deleted(r.queries.DeleteLink(ctx, id)); err != nil {
		return fmt.Errorf("delete link %d: %w", id, err)
	}
	return nil
}

// RecordLinkClick bumps the click counter and stamps the access time.
func (r *SQLiteRepository) RecordLinkClick(ctx context.Context, id int64, at time.Time) (core.Link, error) {
	row, err := r.queries.RecordLinkClick(ctx, formatTimestamp(at), id)
	if err != nil {
		return core.Link{}, fmt.Errorf("record click on link %d: %w", id, notFound(err))
	}
	return linkFromRow(row)
}

// Contacts

func contactFromRow(c Contact) (core.Contact, error) {
	verified, err := timestampPtr(c.LastVerifiedAt)
	if err != nil {
		return core.Contact{}, err
	}
	return core.Contact{
		ID:             c.ID,
		Name:           c.Name,
		Category:       c.Category,
		Phone:          stringPtr(c.Phone),
		Hours:          stringPtr(c.Hours),
		URL:            stringPtr(c.URL),
		Notes:          stringPtr(c.Notes),
		LastVerifiedAt: verified,
	}, nil
}

func contactParams(c core.Contact) ContactParams {
	return ContactParams{
		Name:           c.Name,
		Category:       c.Category,
		Phone:          nullString(c.Phone),
		Hours:          nullString(c.Hours),
		URL:            nullString(c.URL),
		Notes:          nullString(c.Notes),
		LastVerifiedAt: nullTimestamp(c.LastVerifiedAt),
	}
}

func (r *SQLiteRepository) ListContacts(ctx context.Context) ([]core.Contact, error) {
	rows, err := r.queries.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	out := make([]core.Contact, 0, len(rows))
	for _, row := range rows {
		c, err := contactFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *SQLiteRepository) GetContact(ctx context.Context, id int64) (core.Contact, error) {
	row, err := r.queries.GetContact(ctx, id)
	if err != nil {
		return core.Contact{}, fmt.Errorf("get contact %d: %w", id, notFound(err))
	}
	return contactFromRow(row)
}

func (r *SQLiteRepository) CreateContact(ctx context.Context, c core.Contact) (core.Contact, error) {
	row, err := r.queries.CreateContact(ctx, contactParams(c))
	if err != nil {
		return core.Contact{}, fmt.Errorf("create contact: %w", err)
	}
	return contactFromRow(row)
}

func (r *SQLiteRepository) UpdateContact(ctx context.Context, c core.Contact) (core.Contact, error) {
	row, err := r.queries.UpdateContact(ctx, c.ID, contactParams(c))
	if err != nil {
		return core.Contact{}, fmt.Errorf("update contact %d: %w", c.ID, notFound(err))
	}
	return contactFromRow(row)
}

func (r *SQLiteRepository) DeleteContact(ctx context.Context, id int64) error {
	if err := deleted(r.queries.DeleteContact(ctx, id)); err != nil {
		return fmt.Errorf("delete contact %d: %w", id, err)
	}
	return nil
}

// Todos

func todoFromRow(t Todo) (core.Todo, error) {
	due, err := timestampPtr(t.Due)
	if err != nil {
		return core.Todo{}, err
	}
	completed, err := timestampPtr(t.CompletedAt)
	if err != nil {
		return core.Todo{}, err
	}
	return core.Todo{
		ID:          t.ID,
		Title:       t.Title,
		Status:      core.TodoStatus(t.Status),
		Due:         due,
		AssigneeID:  int64Ptr(t.AssigneeID),
		RepeatRule:  stringPtr(t.RepeatRule),
		ListID:      stringPtr(t.ListID),
		CompletedAt: completed,
	}, nil
}

func todoParams(t core.Todo) TodoParams {
	return TodoParams{
		Title:       t.Title,
		Status:      string(t.Status),
		Due:         nullTimestamp(t.Due),
		AssigneeID:  nullInt64(t.AssigneeID),
		RepeatRule:  nullString(t.RepeatRule),
		ListID:      nullString(t.ListID),
		CompletedAt: nullTimestamp(t.CompletedAt),
	}
}

func (r *SQLiteRepository) ListTodos(ctx context.Context) ([]core.Todo, error) {
	rows, err := r.queries.ListTodos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	out := make([]core.Todo, 0, len(rows))
	for _, row := range rows {
		t, err := todoFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTodo(ctx context.Context, id int64) (core.Todo, error) {
	row, err := r.queries.GetTodo(ctx, id)
	if err != nil {
		return core.Todo{}, fmt.Errorf("get todo %d: %w", id, notFound(err))
	}
	return todoFromRow(row)
}

func (r *SQLiteRepository) CreateTodo(ctx context.Context, t core.Todo) (core.Todo, error) {
	row, err := r.queries.CreateTodo(ctx, todoParams(t))
	if err != nil {
		return core.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return todoFromRow(row)
}

func (r *SQLiteRepository) UpdateTodo(ctx context.Context, t core.Todo) (core.Todo, error) {
	row, err := r.queries.UpdateTodo(ctx, t.ID, todoParams(t))
	if err != nil {
		return core.Todo{}, fmt.Errorf("update todo %d: %w", t.ID, notFound(err))
	}
	return todoFromRow(row)
}

func (r *SQLiteRepository) DeleteTodo(ctx context.Context, id int64) error {
	if err := deleted(r.queries.DeleteTodo(ctx, id)); err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	return nil
}

// Events

func eventFromRow(e Event) (core.Event, error) {
	start, err := parseTimestamp(e.StartAt)
	if err != nil {
		return core.Event{}, err
	}
	end, err := parseTimestamp(e.EndAt)
	if err != nil {
		return core.Event{}, err
	}
	return core.Event{
		ID:         e.ID,
		Title:      e.Title,
		Start:      start,
		End:        end,
		AllDay:     e.AllDay,
		Source:     core.EventSource(e.Source),
		Color:      stringPtr(e.Color),
		Notes:      stringPtr(e.Notes),
		CreatedBy:  stringPtr(e.CreatedBy),
		AssigneeID: int64Ptr(e.AssigneeID),
	}, nil
}

func eventParams(e core.Event) EventParams {
	return EventParams{
		Title:      e.Title,
		StartAt:    formatTimestamp(e.Start),
		EndAt:      formatTimestamp(e.End),
		AllDay:     e.AllDay,
		Source:     string(e.Source),
		Color:      nullString(e.Color),
		Notes:      nullString(e.Notes),
		CreatedBy:  nullString(e.CreatedBy),
		AssigneeID: nullInt64(e.AssigneeID),
	}
}

// ListEvents returns events overlapping the optional [start, end] window.
func (r *SQLiteRepository) ListEvents(ctx context.Context, start, end *time.Time) ([]core.Event, error) {
	rows, err := r.queries.ListEvents(ctx, ListEventsParams{
		WindowStart: nullTimestamp(start),
		WindowEnd:   nullTimestamp(end),
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]core.Event, 0, len(rows))
	for _, row := range rows {
		e, err := eventFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id int64) (core.Event, error) {
	row, err := r.queries.GetEvent(ctx, id)
	if err != nil {
		return core.Event{}, fmt.Errorf("get event %d: %w", id, notFound(err))
	}
	return eventFromRow(row)
}

func (r *SQLiteRepository) CreateEvent(ctx context.Context, e core.Event) (core.Event, error) {
	row, err := r.queries.CreateEvent(ctx, eventParams(e))
	if err != nil {
		return core.Event{}, fmt.Errorf("create event: %w", err)
	}
	return eventFromRow(row)
}

func (r *SQLiteRepository) UpdateEvent(ctx context.Context, e core.Event) (core.Event, error) {
	row, err := r.queries.UpdateEvent(ctx, e.ID, eventParams(e))
	if err != nil {
		return core.Event{}, fmt.Errorf("update event %d: %w", e.ID, notFound(err))
	}
	return eventFromRow(row)
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id int64) error {
	if err := deleted(r.queries.DeleteEvent(ctx, id)); err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	return nil
}

// Audit log

func (r *SQLiteRepository) InsertAudit(ctx context.Context, e core.AuditEntry) (int64, error) {
	diff := e.Diff
	if diff == nil {
		diff = map[string]any{}
	}
	b, err := json.Marshal(diff)
	if err != nil {
		return 0, fmt.Errorf("encode audit diff: %w", err)
	}
	id, err := r.queries.InsertAuditLog(ctx, InsertAuditLogParams{
		UserID:   nullInt64(e.UserID),
		Action:   e.Action,
		Entity:   e.Entity,
		EntityID: e.EntityID,
		DiffJSON: string(b),
		At:       formatTimestamp(e.At),
	})
	if isConstraintError(err) {
		return 0, fmt.Errorf("insert audit entry: %w: %w", core.ErrConflict, err)
	}
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListAudit(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	rows, err := r.queries.ListAuditLog(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	out := make([]core.AuditEntry, 0, len(rows))
	for _, row := range rows {
		at, err := parseTimestamp(row.At)
		if err != nil {
			return nil, err
		}
		var diff map[string]any
		if err := json.Unmarshal([]byte(row.DiffJSON), &diff); err != nil {
			return nil, fmt.Errorf("decode audit diff %d: %w", row.ID, err)
		}
		out = append(out, core.AuditEntry{
			ID:       row.ID,
			UserID:   int64Ptr(row.UserID),
			Action:   row.Action,
			Entity:   row.Entity,
			EntityID: row.EntityID,
			Diff:     diff,
			At:       at,
		})
	}
	return out, nil
}
