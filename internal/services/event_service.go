package services

import (
	"context"
	"fmt"
	"time"

	"homeportal/internal/core"
)

type EventStore interface {
	ListEvents(ctx context.Context, start, end *time.Time) ([]core.Event, error)
	GetEvent(ctx context.Context, id int64) (core.Event, error)
	CreateEvent(ctx context.Context, e core.Event) (core.Event, error)
	UpdateEvent(ctx context.Context, e core.Event) (core.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

// EventService manages the shared calendar. Local events are mirrored to the
// external calendar through the notifier.
type EventService struct {
	store    EventStore
	notifier *Notifier
}

func NewEventService(store EventStore, notifier *Notifier) *EventService {
	return &EventService{store: store, notifier: notifier}
}

// List returns events overlapping [start, end]. Either bound may be nil.
func (s *EventService) List(ctx context.Context, start, end *time.Time) ([]core.Event, error) {
	return s.store.ListEvents(ctx, start, end)
}

func (s *EventService) Get(ctx context.Context, id int64) (core.Event, error) {
	return s.store.GetEvent(ctx, id)
}

func (s *EventService) Create(ctx context.Context, e core.Event) (core.Event, error) {
	e.ID = 0
	if e.Source == "" {
		e.Source = core.SourceLocal
	}
	if e.CreatedBy == nil {
		if u, ok := core.UserFromContext(ctx); ok && u.Name != "" {
			name := u.Name
			e.CreatedBy = &name
		}
	}
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}

	created, err := s.store.CreateEvent(ctx, e)
	if err != nil {
		return core.Event{}, fmt.Errorf("create event: %w", err)
	}
	s.notifier.Audit(ctx, "create", EntityEvent, created.ID, map[string]any{"title": created.Title})
	if created.Source == core.SourceLocal {
		s.notifier.EventChanged(ctx, created.ID)
	}
	return created, nil
}

func (s *EventService) Update(ctx context.Context, id int64, patch core.EventPatch) (core.Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return core.Event{}, err
	}
	wasLocal := e.Source == core.SourceLocal

	patch.Apply(&e)
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}
	updated, err := s.store.UpdateEvent(ctx, e)
	if err != nil {
		return core.Event{}, err
	}
	s.notifier.Audit(ctx, "update", EntityEvent, id, diffOf(patch))

	switch {
	case updated.Source == core.SourceLocal:
		s.notifier.EventChanged(ctx, id)
	case wasLocal:
		s.notifier.EventRemoved(ctx, id)
	}
	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, id int64) error {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.notifier.Audit(ctx, "delete", EntityEvent, id, nil)
	if e.Source == core.SourceLocal {
		s.notifier.EventRemoved(ctx, id)
	}
	return nil
}
