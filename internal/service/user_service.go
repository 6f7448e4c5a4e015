package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// UserService answers account lookups.
type UserService struct {
	users repository.UserRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetUser returns an account visible to the caller: their own, or any account for staff.
func (s *UserService) GetUser(ctx context.Context, caller domain.Identity, userID string) (*domain.User, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	if err := policy.CanViewUser(caller, userID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, resourceUser, userID)
	}
	return user, nil
}

// ListAssignees returns active technicians and admins, the accounts a ticket can be assigned to.
func (s *UserService) ListAssignees(ctx context.Context, caller domain.Identity) ([]domain.User, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	if err := policy.CanAssign(caller); err != nil {
		return nil, err
	}
	users, err := s.users.ListByRoles(ctx, []domain.Role{domain.RoleTechnician, domain.RoleAdmin}, true)
	if err != nil {
		return nil, mapRepoError(err, resourceUser, "")
	}
	return users, nil
}
