package worker

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeportal/internal/amqp"
	"homeportal/internal/calendar/memory"
	"homeportal/internal/core"
	applog "homeportal/internal/log"
	"homeportal/internal/storage"
)

func setup(t *testing.T) (*Worker, *storage.SQLiteRepository, *memory.Mirror) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	mirror := memory.New()
	logger := applog.New(applog.Config{Output: &bytes.Buffer{}})
	return New(repo, repo, mirror, logger), repo, mirror
}

func envelope(t *testing.T, typ amqp.MessageType, payload any) *amqp.Envelope {
	t.Helper()
	env, err := amqp.NewEnvelope(typ, payload)
	require.NoError(t, err)
	return env
}

func TestHandleAuditWritesEntry(t *testing.T) {
	w, repo, _ := setup(t)
	ctx := context.Background()
	email := "alice@example.com"
	alice, err := repo.EnsureUser(ctx, core.User{Name: "Alice", Role: core.RoleUser, Email: &email})
	require.NoError(t, err)
	userID := alice.ID
	at := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	err = w.Handle(ctx, envelope(t, amqp.TypeAudit, amqp.AuditMessage{
		UserID: &userID, Action: "update", Entity: "link", EntityID: "4",
		Diff: map[string]any{"title": "New"}, At: at,
	}))
	require.NoError(t, err)

	entries, err := repo.ListAudit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "update", entries[0].Action)
	assert.Equal(t, "4", entries[0].EntityID)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, alice.ID, *entries[0].UserID)
	assert.True(t, entries[0].At.Equal(at))
	assert.Equal(t, Stats{Handled: 1}, w.Stats())
}

func TestHandleAuditForDeletedUser(t *testing.T) {
	w, repo, _ := setup(t)
	ctx := context.Background()
	gone := int64(42)

	err := w.Handle(ctx, envelope(t, amqp.TypeAudit, amqp.AuditMessage{
		UserID: &gone, Action: "delete", Entity: "todo", EntityID: "9",
		At: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, err)

	entries, err := repo.ListAudit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].UserID)
	assert.Equal(t, "9", entries[0].EntityID)
}

type conflictingAudit struct{}

func (conflictingAudit) InsertAudit(context.Context, core.AuditEntry) (int64, error) {
	return 0, core.ErrConflict
}

func TestHandleAuditConstraintFailureIsPermanent(t *testing.T) {
	_, repo, _ := setup(t)
	w := New(conflictingAudit{}, repo, nil, applog.New(applog.Config{Output: &bytes.Buffer{}}))

	err := w.Handle(context.Background(), envelope(t, amqp.TypeAudit, amqp.AuditMessage{Action: "create", Entity: "link", EntityID: "1"}))
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.ErrorIs(t, err, amqp.ErrPermanent)
}

func TestHandleCalendarMessages(t *testing.T) {
	w, repo, mirror := setup(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	local, err := repo.CreateEvent(ctx, core.Event{Title: "Swim class", Start: start, End: start.Add(time.Hour), Source: core.SourceLocal})
	require.NoError(t, err)
	remote, err := repo.CreateEvent(ctx, core.Event{Title: "Imported", Start: start, End: start, Source: core.SourceGoogle})
	require.NoError(t, err)

	require.NoError(t, w.Handle(ctx, envelope(t, amqp.TypeCalendarUpsert, amqp.CalendarMessage{EventID: local.ID})))
	require.NoError(t, w.Handle(ctx, envelope(t, amqp.TypeCalendarUpsert, amqp.CalendarMessage{EventID: remote.ID})))
	require.NoError(t, w.Handle(ctx, envelope(t, amqp.TypeCalendarUpsert, amqp.CalendarMessage{EventID: 999})))

	mirrored := mirror.Events()
	require.Len(t, mirrored, 1)
	assert.Equal(t, "Swim class", mirrored[0].Title)

	require.NoError(t, w.Handle(ctx, envelope(t, amqp.TypeCalendarDelete, amqp.CalendarMessage{EventID: local.ID})))
	assert.Empty(t, mirror.Events())
}

func TestHandleClassifiesFailures(t *testing.T) {
	w, repo, mirror := setup(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	e, err := repo.CreateEvent(ctx, core.Event{Title: "Swim class", Start: start, End: start, Source: core.SourceLocal})
	require.NoError(t, err)

	boom := errors.New("rate limited")
	mirror.FailWith(boom)
	err = w.Handle(ctx, envelope(t, amqp.TypeCalendarUpsert, amqp.CalendarMessage{EventID: e.ID}))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, amqp.ErrPermanent, "transient mirror failures are retried")

	err = w.Handle(ctx, &amqp.Envelope{Type: amqp.TypeAudit, Payload: []byte(`"not an object"`)})
	assert.ErrorIs(t, err, amqp.ErrPermanent)

	err = w.Handle(ctx, &amqp.Envelope{Type: "bogus"})
	assert.ErrorIs(t, err, amqp.ErrUnknownMessageType)
	assert.ErrorIs(t, err, amqp.ErrPermanent)

	assert.Equal(t, Stats{Failed: 3}, w.Stats())
}

func TestCalendarMessagesWithoutMirror(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	w := New(repo, repo, nil, applog.New(applog.Config{Output: &bytes.Buffer{}}))

	err = w.Handle(context.Background(), envelope(t, amqp.TypeCalendarDelete, amqp.CalendarMessage{EventID: 1}))
	assert.NoError(t, err)
}
