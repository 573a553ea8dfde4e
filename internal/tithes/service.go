package tithes

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// MemberSource verifies that a tithe's member exists and is not deleted.
type MemberSource interface {
	Exists(ctx context.Context, memberID int64) error
}

// titheStore is the lifecycle surface the service needs; satisfied by
// *lifecycle.Store[Tithe].
type titheStore interface {
	Create(ctx context.Context, t *Tithe) (int64, error)
	Get(ctx context.Context, id int64) (*Tithe, error)
	List(ctx context.Context, opts lifecycle.ListOptions) ([]Tithe, error)
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
}

type Service struct {
	repo    *Repository
	store   titheStore
	members MemberSource
	now     func() time.Time
}

func NewService(repo *Repository, members MemberSource) *Service {
	return &Service{repo: repo, store: repo.Store(), members: members, now: time.Now}
}

type TitheInput struct {
	MemberID   int64
	Amount     decimal.Decimal
	ReceivedOn time.Time
	Note       *string
}

func (s *Service) Register(ctx context.Context, input TitheInput) (*Tithe, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if s.members != nil {
		if err := s.members.Exists(ctx, input.MemberID); err != nil {
			return nil, err
		}
	}
	if input.ReceivedOn.IsZero() {
		input.ReceivedOn = s.now()
	}
	t := &Tithe{
		MemberID:   input.MemberID,
		Amount:     input.Amount,
		ReceivedOn: input.ReceivedOn,
		Note:       input.Note,
	}
	id, err := s.store.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Tithe, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, opts lifecycle.ListOptions) ([]Tithe, error) {
	return s.store.List(ctx, opts)
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

func (s *Service) MonthlyTotals(ctx context.Context, year int) ([]MonthlyTotal, error) {
	if year < 1900 || year > 3000 {
		return nil, fmt.Errorf("%w: year out of range", shared.ErrValidation)
	}
	return s.repo.MonthlyTotals(ctx, year)
}
