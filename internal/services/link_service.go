package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homeportal/internal/core"
)

type LinkStore interface {
	ListLinks(ctx context.Context) ([]core.Link, error)
	SearchLinks(ctx context.Context, query string, tags []string) ([]core.Link, error)
	GetLink(ctx context.Context, id int64) (core.Link, error)
	CreateLink(ctx context.Context, l core.Link) (core.Link, error)
	UpdateLink(ctx context.Context, l core.Link) (core.Link, error)
	DeleteLink(ctx context.Context, id int64) error
	RecordLinkClick(ctx context.Context, id int64, at time.Time) (core.Link, error)
}

type LinkService struct {
	store    LinkStore
	notifier *Notifier
	now      func() time.Time
}

func NewLinkService(store LinkStore, notifier *Notifier) *LinkService {
	return &LinkService{store: store, notifier: notifier, now: time.Now}
}

func (s *LinkService) List(ctx context.Context) ([]core.Link, error) {
	return s.store.ListLinks(ctx)
}

// Search matches q against title and URL and requires every tag.
func (s *LinkService) Search(ctx context.Context, q string, tags []string) ([]core.Link, error) {
	var wanted []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			wanted = append(wanted, t)
		}
	}
	return s.store.SearchLinks(ctx, strings.TrimSpace(q), wanted)
}

// Create stores l owned by the acting user.
func (s *LinkService) Create(ctx context.Context, l core.Link) (core.Link, error) {
	l.ID, l.ClickCount, l.LastAccessedAt, l.OwnerID = 0, 0, nil, nil
	if u, ok := core.UserFromContext(ctx); ok && u.ID != 0 {
		owner := u.ID
		l.OwnerID = &owner
	}
	if err := l.Validate(); err != nil {
		return core.Link{}, err
	}

	created, err := s.store.CreateLink(ctx, l)
	if err != nil {
		return core.Link{}, fmt.Errorf("create link: %w", err)
	}
	s.notifier.Audit(ctx, "create", EntityLink, created.ID, map[string]any{"title": created.Title, "url": created.URL})
	return created, nil
}

func (s *LinkService) Update(ctx context.Context, id int64, patch core.LinkPatch) (core.Link, error) {
	l, err := s.store.GetLink(ctx, id)
	if err != nil {
		return core.Link{}, err
	}
	patch.Apply(&l)
	if err := l.Validate(); err != nil {
		return core.Link{}, err
	}

	updated, err := s.store.UpdateLink(ctx, l)
	if err != nil {
		return core.Link{}, err
	}
	s.notifier.Audit(ctx, "update", EntityLink, id, diffOf(patch))
	return updated, nil
}

func (s *LinkService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteLink(ctx, id); err != nil {
		return err
	}
	s.notifier.Audit(ctx, "delete", EntityLink, id, nil)
	return nil
}

// Click counts one visit through the portal.
func (s *LinkService) Click(ctx context.Context, id int64) (core.Link, error) {
	return s.store.RecordLinkClick(ctx, id, s.now().UTC())
}
