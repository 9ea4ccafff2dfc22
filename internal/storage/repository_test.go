package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeportal/internal/assets"
	"homeportal/internal/core"
	applog "homeportal/internal/log"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "homeportal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homeportal.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))

	version, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestInsertAndListSnapshots(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertSnapshots(ctx, []core.AssetSnapshot{
		{Date: core.NewDate(2024, 1, 31), AccountName: "Checking", Balance: 1000, Currency: "USD"},
		{Date: core.NewDate(2024, 2, 29), AccountName: "Euro", Balance: 300.5, Currency: "EUR"},
		{Date: core.NewDate(2025, 1, 1), AccountName: "Checking", Balance: 1, Currency: "USD"},
	}))

	all, err := repo.ListSnapshots(ctx, core.DateRange{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2025-01-01", all[0].Date.String())
	assert.Equal(t, "2024-01-31", all[2].Date.String())
	assert.NotZero(t, all[0].ID)
	assert.Equal(t, 300.5, all[1].Balance)

	from := core.NewDate(2024, 2, 1)
	before := core.NewDate(2025, 1, 1)
	ranged, err := repo.ListSnapshots(ctx, core.DateRange{From: &from, Before: &before})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "Euro", ranged[0].AccountName)
}

func TestInsertSnapshotsLogsThroughContextLogger(t *testing.T) {
	repo := newTestRepo(t)
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Format: "json", Component: applog.ComponentAssets, Output: &buf}).With("request_id", "req-1")
	ctx := applog.NewContext(context.Background(), logger)

	require.NoError(t, repo.InsertSnapshots(ctx, []core.AssetSnapshot{
		{Date: core.NewDate(2024, 1, 31), AccountName: "Checking", Balance: 1, Currency: "USD"},
	}))
	assert.Contains(t, buf.String(), "Asset snapshots saved")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"component":"assets"`)
}

func TestInsertSnapshotsIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.InsertSnapshots(ctx, []core.AssetSnapshot{
		{Date: core.NewDate(2024, 1, 31), AccountName: "Checking", Balance: 1, Currency: "USD"},
		{Date: core.NewDate(2024, 1, 31), AccountName: "Broken", Balance: 1, Currency: ""},
	})
	require.Error(t, err)

	n, err := repo.CountSnapshots(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportAndSummarizeAgainstSQLite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	importer := assets.NewImporter(repo, nil)

	doc := "date,account_name,balance,currency\n" +
		"2024-01-31,Checking,1000,USD\n" +
		"2024-01-31,Savings,500,USD\n" +
		"2024-02-29,Checking,1200,USD\n" +
		"2024-02-29,Euro,300,EUR\n" +
		"2024-13-01,Broken,1,USD\n"

	out, err := importer.Import(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 4, out.Imported)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, 6, out.Failed[0].LineNumber)

	items, err := assets.NewSummarizer(repo).Summarize(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, []core.SummaryBucket{
		{Month: "2024-01", Totals: map[string]float64{"USD": 1500}},
		{Month: "2024-02", Totals: map[string]float64{"USD": 1200, "EUR": 300}},
	}, items)

	feb, err := assets.NewSummarizer(repo).Summarize(ctx, "2024-02", "2024-02")
	require.NoError(t, err)
	require.Len(t, feb, 1)
	assert.Equal(t, "2024-02", feb[0].Month)

	// Importing the same file again doubles the stored rows.
	_, err = importer.Import(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	n, err := repo.CountSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := core.User{Name: "Household", Role: core.RoleAdmin, Email: strPtr("default@local")}
	first, err := repo.EnsureUser(ctx, u)
	require.NoError(t, err)
	second, err := repo.EnsureUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = repo.GetUserByEmail(ctx, "nobody@local")
	assert.ErrorIs(t, err, core.ErrNotFound)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLinksCRUDAndSearch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cal, err := repo.CreateLink(ctx, core.Link{Title: "Family Calendar", URL: "https://cal.example.com", Tags: []string{"family", "calendar"}})
	require.NoError(t, err)
	bank, err := repo.CreateLink(ctx, core.Link{Title: "Bank", URL: "https://bank.example.com/100%_safe", Tags: []string{"finance"}})
	require.NoError(t, err)
	_, err = repo.CreateLink(ctx, core.Link{Title: "School", URL: "https://school.example.com"})
	require.NoError(t, err)

	list, err := repo.ListLinks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Bank", list[0].Title)
	assert.Equal(t, []string{}, list[2].Tags)

	_, err = repo.RecordLinkClick(ctx, bank.ID, time.Now())
	require.NoError(t, err)
	clicked, err := repo.RecordLinkClick(ctx, bank.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), clicked.ClickCount)
	require.NotNil(t, clicked.LastAccessedAt)

	res, err := repo.SearchLinks(ctx, "EXAMPLE", nil)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "Bank", res[0].Title, "most clicked first")

	res, err = repo.SearchLinks(ctx, "", []string{"family", "calendar"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, cal.ID, res[0].ID)

	res, err = repo.SearchLinks(ctx, "", []string{"family", "finance"})
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = repo.SearchLinks(ctx, "100%", nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, bank.ID, res[0].ID)

	cal.Title = "Shared Calendar"
	updated, err := repo.UpdateLink(ctx, cal)
	require.NoError(t, err)
	assert.Equal(t, "Shared Calendar", updated.Title)

	require.NoError(t, repo.DeleteLink(ctx, cal.ID))
	assert.ErrorIs(t, repo.DeleteLink(ctx, cal.ID), core.ErrNotFound)
	_, err = repo.GetLink(ctx, cal.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestContactsOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, c := range []core.Contact{
		{Name: "Vet", Category: "pets"},
		{Name: "Plumber", Category: "home", Phone: strPtr("555-0101")},
		{Name: "Electrician", Category: "home"},
	} {
		_, err := repo.CreateContact(ctx, c)
		require.NoError(t, err)
	}

	list, err := repo.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Electrician", "Plumber", "Vet"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, "555-0101", *list[1].Phone)

	list[0].Notes = strPtr("cash only")
	updated, err := repo.UpdateContact(ctx, list[0])
	require.NoError(t, err)
	assert.Equal(t, "cash only", *updated.Notes)

	_, err = repo.UpdateContact(ctx, core.Contact{ID: 999, Name: "x", Category: "y"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTodosOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	later := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, td := range []core.Todo{
		{Title: "No due date", Status: core.TodoOpen},
		{Title: "Later", Status: core.TodoOpen, Due: &later},
		{Title: "Sooner", Status: core.TodoOpen, Due: &sooner},
		{Title: "Finished", Status: core.TodoDone, CompletedAt: &sooner},
	} {
		_, err := repo.CreateTodo(ctx, td)
		require.NoError(t, err)
	}

	list, err := repo.ListTodos(ctx)
	require.NoError(t, err)
	var titles []string
	for _, td := range list {
		titles = append(titles, td.Title)
	}
	assert.Equal(t, []string{"Finished", "Sooner", "Later", "No due date"}, titles)
	assert.True(t, list[1].Due.Equal(sooner))
}

func TestEventsWindow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, title := range []string{"Breakfast", "Dentist", "Dinner"} {
		start := base.Add(time.Duration(i) * 5 * time.Hour)
		_, err := repo.CreateEvent(ctx, core.Event{Title: title, Start: start, End: start.Add(time.Hour), Source: core.SourceLocal})
		require.NoError(t, err)
	}

	all, err := repo.ListEvents(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Breakfast", all[0].Title)
	assert.True(t, all[0].Start.Equal(base))

	winStart := base.Add(90 * time.Minute)
	winEnd := base.Add(6 * time.Hour)
	window, err := repo.ListEvents(ctx, &winStart, &winEnd)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "Dentist", window[0].Title)

	require.NoError(t, repo.DeleteEvent(ctx, window[0].ID))
	_, err = repo.GetEvent(ctx, window[0].ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAuditLog(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	_, err := repo.InsertAudit(ctx, core.AuditEntry{Action: "create", Entity: "link", EntityID: "1", Diff: map[string]any{"title": "Bank"}, At: at})
	require.NoError(t, err)
	_, err = repo.InsertAudit(ctx, core.AuditEntry{Action: "delete", Entity: "link", EntityID: "1", At: at.Add(time.Minute)})
	require.NoError(t, err)

	entries, err := repo.ListAudit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "delete", entries[0].Action)
	assert.Equal(t, "Bank", entries[1].Diff["title"])
}

func TestAuditLogUnknownUserIsConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	missing := int64(99)
	_, err := repo.InsertAudit(ctx, core.AuditEntry{UserID: &missing, Action: "create", Entity: "link", EntityID: "1", At: time.Now()})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConflict)

	entries, err := repo.ListAudit(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
