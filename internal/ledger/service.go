package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// AuditPort records ledger mutations in the audit trail.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts ledger outcomes.
type MetricsPort interface {
	DistributionCommitted()
	ConservationRejected()
}

// Service owns the offering ledger. All distribution writes go through a
// transaction that locks the parent offering, so the allocated total can
// never exceed the collected amount no matter how many writers race.
type Service struct {
	repo    Repository
	audit   AuditPort
	metrics MetricsPort
	now     func() time.Time
}

func NewService(repo Repository, audit AuditPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// OfferingInput carries the fields callers supply when recording an offering.
type OfferingInput struct {
	Amount   decimal.Decimal
	IsPublic bool
}

// DistributionInput carries the fields for a new distribution.
type DistributionInput struct {
	OfferingID   int64
	Destination  string
	Amount       decimal.Decimal
	Channel      *string
	TransferDate *time.Time
}

// RecordOffering creates a new offering attributed to the acting principal.
func (s *Service) RecordOffering(ctx context.Context, input OfferingInput, actorID int64) (*Offering, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	off := &Offering{
		Amount:     input.Amount,
		RecordedBy: actorID,
		IsPublic:   input.IsPublic,
	}
	var err error
	if off.ID, err = s.repo.CreateOffering(ctx, off); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "offering.record", "offering", off.ID, map[string]any{
		"amount": off.Amount.String(),
	})
	return s.repo.GetOffering(ctx, off.ID)
}

func (s *Service) GetOffering(ctx context.Context, id int64) (*Offering, error) {
	return s.repo.GetOffering(ctx, id)
}

func (s *Service) ListOfferings(ctx context.Context, opts lifecycle.ListOptions) ([]Offering, error) {
	return s.repo.ListOfferings(ctx, opts)
}

// OfferingBalance reports the collected amount, the live distributed total
// and the remaining undistributed balance for one offering.
type OfferingBalance struct {
	Offering      *Offering
	Distributed   decimal.Decimal
	Undistributed decimal.Decimal
}

// TotalDistributed reports the live sum of non-deleted distributions for an
// offering, from the same query the conservation check uses.
func (s *Service) TotalDistributed(ctx context.Context, offeringID int64) (decimal.Decimal, error) {
	return s.repo.TotalDistributed(ctx, offeringID)
}

func (s *Service) Balance(ctx context.Context, offeringID int64) (*OfferingBalance, error) {
	off, err := s.repo.GetOffering(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	distributed, err := s.repo.TotalDistributed(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	return &OfferingBalance{
		Offering:      off,
		Distributed:   distributed,
		Undistributed: off.Amount.Sub(distributed),
	}, nil
}

// AddDistribution commits a disbursement against an offering. The offering
// row is locked for the duration of the check, so two concurrent calls for
// the same offering serialize and the loser sees the winner's total. Equality
// is allowed: a distribution may consume the balance exactly.
func (s *Service) AddDistribution(ctx context.Context, input DistributionInput, actorID int64) (*Distribution, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	if input.Destination == "" {
		return nil, ErrDestinationRequired
	}
	dist := &Distribution{
		OfferingID:   input.OfferingID,
		Reference:    uuid.New(),
		Destination:  input.Destination,
		Amount:       input.Amount,
		Channel:      input.Channel,
		TransferDate: input.TransferDate,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		off, err := tx.GetOfferingForUpdate(ctx, input.OfferingID)
		if err != nil {
			return err
		}
		if off.Deleted() {
			return ErrOfferingDeleted
		}
		distributed, err := tx.TotalDistributed(ctx, input.OfferingID)
		if err != nil {
			return err
		}
		if distributed.Add(input.Amount).GreaterThan(off.Amount) {
			return ErrConservation
		}
		dist.ID, err = tx.InsertDistribution(ctx, dist)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrConservation) && s.metrics != nil {
			s.metrics.ConservationRejected()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.DistributionCommitted()
	}
	s.recordAudit(ctx, actorID, "distribution.add", "distribution", dist.ID, map[string]any{
		"offering_id": input.OfferingID,
		"amount":      input.Amount.String(),
		"destination": input.Destination,
	})
	return s.repo.GetDistribution(ctx, dist.ID)
}

func (s *Service) GetDistribution(ctx context.Context, id int64) (*Distribution, error) {
	return s.repo.GetDistribution(ctx, id)
}

func (s *Service) ListDistributions(ctx context.Context, offeringID int64) ([]Distribution, error) {
	if _, err := s.repo.GetOffering(ctx, offeringID); err != nil {
		return nil, err
	}
	return s.repo.ListDistributions(ctx, offeringID)
}

// RemoveDistribution soft-deletes a distribution, returning its amount to
// the offering's undistributed balance.
func (s *Service) RemoveDistribution(ctx context.Context, id int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		dist, err := tx.GetDistribution(ctx, id)
		if err != nil {
			return err
		}
		// Lock the parent so the balance freed here is visible to any
		// concurrent conservation check before it commits.
		if _, err := tx.GetOfferingForUpdate(ctx, dist.OfferingID); err != nil {
			return err
		}
		return tx.SoftDeleteDistribution(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "distribution.remove", "distribution", id, nil)
	return nil
}

// DeleteOffering soft-deletes an offering. Without cascade the call is
// rejected while non-deleted distributions remain; with cascade the
// distributions are soft-deleted in the same transaction.
func (s *Service) DeleteOffering(ctx context.Context, id int64, cascade bool, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		off, err := tx.GetOfferingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if off.Deleted() {
			return nil
		}
		active, err := tx.HasActiveDistributions(ctx, id)
		if err != nil {
			return err
		}
		if active {
			if !cascade {
				return ErrDistributionsExist
			}
			if err := tx.SoftDeleteDistributionsOf(ctx, id); err != nil {
				return err
			}
		}
		return tx.SoftDeleteOffering(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "offering.delete", "offering", id, map[string]any{
		"cascade": cascade,
	})
	return nil
}

// RestoreOffering reverses a soft delete. Distributions removed by a cascade
// stay deleted; restoring them is a deliberate per-distribution decision.
func (s *Service) RestoreOffering(ctx context.Context, id int64, actorID int64) (*Offering, error) {
	if err := s.repo.RestoreOffering(ctx, id); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "offering.restore", "offering", id, nil)
	return s.repo.GetOffering(ctx, id)
}

// HardDeleteOffering permanently removes an offering and its distributions.
func (s *Service) HardDeleteOffering(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.HardDeleteOffering(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "offering.hard_delete", "offering", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
