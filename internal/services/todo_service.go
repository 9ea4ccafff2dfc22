package services

import (
	"context"
	"fmt"
	"time"

	"homeportal/internal/core"
	applog "homeportal/internal/log"
)

type TodoStore interface {
	ListTodos(ctx context.Context) ([]core.Todo, error)
	GetTodo(ctx context.Context, id int64) (core.Todo, error)
	CreateTodo(ctx context.Context, t core.Todo) (core.Todo, error)
	UpdateTodo(ctx context.Context, t core.Todo) (core.Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
}

type TodoService struct {
	store    TodoStore
	notifier *Notifier
	now      func() time.Time
}

func NewTodoService(store TodoStore, notifier *Notifier) *TodoService {
	return &TodoService{store: store, notifier: notifier, now: time.Now}
}

func (s *TodoService) List(ctx context.Context) ([]core.Todo, error) {
	return s.store.ListTodos(ctx)
}

func (s *TodoService) Create(ctx context.Context, t core.Todo) (core.Todo, error) {
	t.ID = 0
	if t.Status == "" {
		t.Status = core.TodoOpen
	}
	if t.Status == core.TodoDone && t.CompletedAt == nil {
		stamp := s.now().UTC()
		t.CompletedAt = &stamp
	}
	if err := t.Validate(); err != nil {
		return core.Todo{}, err
	}
	created, err := s.store.CreateTodo(ctx, t)
	if err != nil {
		return core.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	s.notifier.Audit(ctx, "create", EntityTodo, created.ID, map[string]any{"title": created.Title, "status": created.Status})
	return created, nil
}

// Update applies patch. Completing a todo with a known repeat rule also
// creates the next open occurrence.
func (s *TodoService) Update(ctx context.Context, id int64, patch core.TodoPatch) (core.Todo, error) {
	t, err := s.store.GetTodo(ctx, id)
	if err != nil {
		return core.Todo{}, err
	}
	wasDone := t.Status == core.TodoDone

	patch.Apply(&t, s.now())
	if err := t.Validate(); err != nil {
		return core.Todo{}, err
	}
	updated, err := s.store.UpdateTodo(ctx, t)
	if err != nil {
		return core.Todo{}, err
	}
	s.notifier.Audit(ctx, "update", EntityTodo, id, diffOf(patch))

	if !wasDone && updated.Status == core.TodoDone {
		s.scheduleNext(ctx, updated)
	}
	return updated, nil
}

func (s *TodoService) scheduleNext(ctx context.Context, done core.Todo) {
	if done.RepeatRule == nil {
		return
	}
	rule, ok := RecurrenceFor(*done.RepeatRule)
	if !ok {
		return
	}

	completed := s.now().UTC()
	if done.CompletedAt != nil {
		completed = *done.CompletedAt
	}
	due := nextDue(rule, done.Due, completed)
	next := core.Todo{
		Title:      done.Title,
		Status:     core.TodoOpen,
		Due:        &due,
		AssigneeID: done.AssigneeID,
		RepeatRule: done.RepeatRule,
		ListID:     done.ListID,
	}
	created, err := s.store.CreateTodo(ctx, next)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to schedule next occurrence",
			applog.FieldEntity, EntityTodo,
			applog.FieldEntityID, done.ID,
			applog.FieldError, err)
		return
	}
	s.notifier.Audit(ctx, "create", EntityTodo, created.ID, map[string]any{"title": created.Title, "repeat_of": done.ID})
}

func (s *TodoService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTodo(ctx, id); err != nil {
		return err
	}
	s.notifier.Audit(ctx, "delete", EntityTodo, id, nil)
	return nil
}
