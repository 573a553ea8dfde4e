package members

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// memberStore is the lifecycle surface the service needs; satisfied by
// *lifecycle.Store[Member].
type memberStore interface {
	Create(ctx context.Context, m *Member) (int64, error)
	Get(ctx context.Context, id int64) (*Member, error)
	GetIncludingDeleted(ctx context.Context, id int64) (*Member, error)
	List(ctx context.Context, opts lifecycle.ListOptions) ([]Member, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
}

// Service owns member directory operations.
type Service struct {
	store memberStore
	now   func() time.Time
}

func NewService(repo *Repository) *Service {
	return &Service{store: repo.Store(), now: time.Now}
}

// MemberInput carries the caller-supplied member fields.
type MemberInput struct {
	Name      string
	Email     string
	Phone     *string
	BirthDate *time.Time
	JoinedOn  time.Time
}

func (in *MemberInput) normalize(now time.Time) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" {
		return fmt.Errorf("%w: name required", shared.ErrValidation)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email required", shared.ErrValidation)
	}
	if in.JoinedOn.IsZero() {
		in.JoinedOn = now
	}
	return nil
}

func (s *Service) Create(ctx context.Context, input MemberInput) (*Member, error) {
	if err := input.normalize(s.now()); err != nil {
		return nil, err
	}
	m := &Member{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		BirthDate: input.BirthDate,
		JoinedOn:  input.JoinedOn,
	}
	id, err := s.store.Create(ctx, m)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Exists reports whether a non-deleted member with the id is present.
func (s *Service) Exists(ctx context.Context, id int64) error {
	_, err := s.store.Get(ctx, id)
	return err
}

func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetIncludingDeleted(ctx context.Context, id int64) (*Member, error) {
	return s.store.GetIncludingDeleted(ctx, id)
}

func (s *Service) List(ctx context.Context, opts lifecycle.ListOptions) ([]Member, error) {
	return s.store.List(ctx, opts)
}

func (s *Service) Update(ctx context.Context, id int64, input MemberInput) (*Member, error) {
	if err := input.normalize(s.now()); err != nil {
		return nil, err
	}
	err := s.store.Update(ctx, id, map[string]any{
		"name":       input.Name,
		"email":      input.Email,
		"phone":      input.Phone,
		"birth_date": input.BirthDate,
		"joined_on":  input.JoinedOn,
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.store.Restore(ctx, id)
}

func (s *Service) HardDelete(ctx context.Context, id int64) error {
	return s.store.HardDelete(ctx, id)
}
