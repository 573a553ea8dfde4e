package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/rbac"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// RoleSource resolves role references for principals.
type RoleSource interface {
	GetRole(ctx context.Context, id int64) (*rbac.Role, error)
}

// Service wraps principal management and authentication rules.
type Service struct {
	repo  *Repository
	roles RoleSource
}

// NewService constructs a Service.
func NewService(repo *Repository, roles RoleSource) *Service {
	return &Service{repo: repo, roles: roles}
}

// Authenticate validates email/password credentials and returns the resolved
// principal with its role attached.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	candidates, err := s.repo.FindActiveByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		a := &candidates[i]
		if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil {
			return s.attachRole(ctx, a)
		}
	}
	return nil, shared.ErrInvalidCredentials
}

// Resolve loads an active principal by id with its role attached. Soft-deleted
// principals do not resolve.
func (s *Service) Resolve(ctx context.Context, id int64) (*Account, error) {
	a, err := s.repo.Store().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.attachRole(ctx, a)
}

func (s *Service) attachRole(ctx context.Context, a *Account) (*Account, error) {
	if a.RoleID == nil {
		return a, nil
	}
	role, err := s.roles.GetRole(ctx, *a.RoleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// A soft-deleted role behaves like no role at all.
			return a, nil
		}
		return nil, err
	}
	a.Role = role
	return a, nil
}

// CreateInput groups the fields of a new principal.
type CreateInput struct {
	Kind          Kind
	Email         string
	Name          string
	Password      string
	SuperOperator bool
	RoleID        *int64
}

// Create registers a new principal of the given kind.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Account, error) {
	if !in.Kind.valid() {
		return nil, fmt.Errorf("%w: unknown principal kind %q", shared.ErrValidation, in.Kind)
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email required", shared.ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password too short", shared.ErrValidation)
	}
	if in.SuperOperator && in.Kind != KindOperator {
		return nil, fmt.Errorf("%w: only operators may be super operators", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	account := Account{
		Kind:          in.Kind,
		Email:         email,
		Name:          strings.TrimSpace(in.Name),
		PasswordHash:  string(hash),
		SuperOperator: in.SuperOperator,
		RoleID:        in.RoleID,
	}
	id, err := s.repo.Store().Create(ctx, &account)
	if err != nil {
		return nil, err
	}
	return s.Resolve(ctx, id)
}

// List returns principals, optionally including soft-deleted ones.
func (s *Service) List(ctx context.Context, includeDeleted bool) ([]Account, error) {
	return s.repo.Store().List(ctx, lifecycle.ListOptions{IncludeDeleted: includeDeleted})
}

// Get fetches an active principal by id.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.Resolve(ctx, id)
}

// GetIncludingDeleted fetches a principal regardless of deletion state.
func (s *Service) GetIncludingDeleted(ctx context.Context, id int64) (*Account, error) {
	return s.repo.Store().GetIncludingDeleted(ctx, id)
}

// AssignRole sets or clears the principal's single optional role.
func (s *Service) AssignRole(ctx context.Context, id int64, roleID *int64) (*Account, error) {
	if err := s.repo.SetRole(ctx, id, roleID); err != nil {
		return nil, err
	}
	return s.Resolve(ctx, id)
}

// Delete soft-deletes a principal. Idempotent.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Store().Delete(ctx, id)
}

// Restore reverses a soft delete.
func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.repo.Store().Restore(ctx, id)
}

// HardDelete physically removes a principal.
func (s *Service) HardDelete(ctx context.Context, id int64) error {
	return s.repo.Store().HardDelete(ctx, id)
}
