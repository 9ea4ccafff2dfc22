package services

import (
	"context"
	"fmt"

	"homeportal/internal/core"
)

const (
	HouseholdEmail = "default@local"
	HouseholdName  = "Household"
	AdminName      = "Administrator"
)

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
	EnsureUser(ctx context.Context, u core.User) (core.User, error)
}

type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// Bootstrap creates the accounts the server needs before serving. With auth
// disabled it returns the household user every request acts as. With auth
// enabled it only ensures the configured administrator, if any.
func (s *UserService) Bootstrap(ctx context.Context, authEnabled bool, adminEmail string) (core.User, error) {
	if !authEnabled {
		email := HouseholdEmail
		u, err := s.store.EnsureUser(ctx, core.User{Name: HouseholdName, Role: core.RoleAdmin, Email: &email})
		if err != nil {
			return core.User{}, fmt.Errorf("ensure household user: %w", err)
		}
		return u, nil
	}

	if adminEmail == "" {
		return core.User{}, nil
	}
	if _, err := s.store.EnsureUser(ctx, core.User{Name: AdminName, Role: core.RoleAdmin, Email: &adminEmail}); err != nil {
		return core.User{}, fmt.Errorf("ensure administrator: %w", err)
	}
	return core.User{}, nil
}

func (s *UserService) List(ctx context.Context) ([]core.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (core.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}
