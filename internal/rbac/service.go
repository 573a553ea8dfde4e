package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// ErrRoleInUse indicates a role delete blocked by active holders.
var ErrRoleInUse = fmt.Errorf("rbac: %w", shared.ErrReferenced)

// Service orchestrates role management.
type Service struct {
	repo *Repository
}

// NewService constructs a Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// RoleInput groups the fields of a role create or update.
type RoleInput struct {
	Name              string
	ManageMembers     bool
	ManageEvents      bool
	ManageFinances    bool
	RegisterTithes    bool
	RegisterOfferings bool
	ManageRoles       bool
	ManageDocuments   bool
	ViewReports       bool
}

// CreateRole inserts a new role with the given capability flags.
func (s *Service) CreateRole(ctx context.Context, in RoleInput) (*Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	role := Role{
		Name:              name,
		ManageMembers:     in.ManageMembers,
		ManageEvents:      in.ManageEvents,
		ManageFinances:    in.ManageFinances,
		RegisterTithes:    in.RegisterTithes,
		RegisterOfferings: in.RegisterOfferings,
		ManageRoles:       in.ManageRoles,
		ManageDocuments:   in.ManageDocuments,
		ViewReports:       in.ViewReports,
	}
	id, err := s.repo.Store().Create(ctx, &role)
	if err != nil {
		return nil, err
	}
	return s.repo.Store().Get(ctx, id)
}

// GetRole fetches an active role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (*Role, error) {
	return s.repo.Store().Get(ctx, id)
}

// ListRoles returns roles, optionally including soft-deleted ones.
func (s *Service) ListRoles(ctx context.Context, includeDeleted bool) ([]Role, error) {
	return s.repo.Store().List(ctx, lifecycle.ListOptions{IncludeDeleted: includeDeleted})
}

// UpdateRole updates name and capability flags of an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, in RoleInput) (*Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	err := s.repo.Store().Update(ctx, id, map[string]any{
		"name":               name,
		"manage_members":     in.ManageMembers,
		"manage_events":      in.ManageEvents,
		"manage_finances":    in.ManageFinances,
		"register_tithes":    in.RegisterTithes,
		"register_offerings": in.RegisterOfferings,
		"manage_roles":       in.ManageRoles,
		"manage_documents":   in.ManageDocuments,
		"view_reports":       in.ViewReports,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Store().Get(ctx, id)
}

// DeleteRole soft-deletes a role. A role still held by an active principal is
// never orphaned silently: the delete is blocked with ErrRoleInUse.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	holders, err := s.repo.CountActiveHolders(ctx, id)
	if err != nil {
		return err
	}
	if holders > 0 {
		return fmt.Errorf("%w: held by %d active principals", ErrRoleInUse, holders)
	}
	return s.repo.Store().Delete(ctx, id)
}

// RestoreRole reverses a soft delete.
func (s *Service) RestoreRole(ctx context.Context, id int64) error {
	return s.repo.Store().Restore(ctx, id)
}

// HardDeleteRole physically removes a role. Callers gate this behind the
// hard-delete action; the referential check still applies.
func (s *Service) HardDeleteRole(ctx context.Context, id int64) error {
	holders, err := s.repo.CountActiveHolders(ctx, id)
	if err != nil {
		return err
	}
	if holders > 0 {
		return fmt.Errorf("%w: held by %d active principals", ErrRoleInUse, holders)
	}
	err = s.repo.Store().HardDelete(ctx, id)
	if errors.Is(err, shared.ErrReferenced) {
		return ErrRoleInUse
	}
	return err
}
