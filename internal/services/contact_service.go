package services

import (
	"context"
	"fmt"

	"homeportal/internal/core"
)

type ContactStore interface {
	ListContacts(ctx context.Context) ([]core.Contact, error)
	GetContact(ctx context.Context, id int64) (core.Contact, error)
	CreateContact(ctx context.Context, c core.Contact) (core.Contact, error)
	UpdateContact(ctx context.Context, c core.Contact) (core.Contact, error)
	DeleteContact(ctx context.Context, id int64) error
}

type ContactService struct {
	store    ContactStore
	notifier *Notifier
}

func NewContactService(store ContactStore, notifier *Notifier) *ContactService {
	return &ContactService{store: store, notifier: notifier}
}

func (s *ContactService) List(ctx context.Context) ([]core.Contact, error) {
	return s.store.ListContacts(ctx)
}

func (s *ContactService) Create(ctx context.Context, c core.Contact) (core.Contact, error) {
	c.ID = 0
	if err := c.Validate(); err != nil {
		return core.Contact{}, err
	}
	created, err := s.store.CreateContact(ctx, c)
	if err != nil {
		return core.Contact{}, fmt.Errorf("create contact: %w", err)
	}
	s.notifier.Audit(ctx, "create", EntityContact, created.ID, map[string]any{"name": created.Name, "category": created.Category})
	return created, nil
}

func (s *ContactService) Update(ctx context.Context, id int64, patch core.ContactPatch) (core.Contact, error) {
	c, err := s.store.GetContact(ctx, id)
	if err != nil {
		return core.Contact{}, err
	}
	patch.Apply(&c)
	if err := c.Validate(); err != nil {
		return core.Contact{}, err
	}
	updated, err := s.store.UpdateContact(ctx, c)
	if err != nil {
		return core.Contact{}, err
	}
	s.notifier.Audit(ctx, "update", EntityContact, id, diffOf(patch))
	return updated, nil
}

func (s *ContactService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteContact(ctx, id); err != nil {
		return err
	}
	s.notifier.Audit(ctx, "delete", EntityContact, id, nil)
	return nil
}
