package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

type EventInput struct {
	Title       string
	Description *string
	Location    *string
	StartsAt    time.Time
	EndsAt      time.Time
	IsPublic    bool
}

func (in *EventInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("%w: title required", shared.ErrValidation)
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() {
		return fmt.Errorf("%w: starts_at and ends_at required", shared.ErrValidation)
	}
	if !in.EndsAt.After(in.StartsAt) {
		return fmt.Errorf("%w: ends_at must follow starts_at", shared.ErrValidation)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, input EventInput) (*Event, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	e := &Event{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		IsPublic:    input.IsPublic,
	}
	id, err := s.repo.Store().Create(ctx, e)
	if err != nil {
		return nil, err
	}
	return s.repo.Store().Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	return s.repo.Store().Get(ctx, id)
}

func (s *Service) List(ctx context.Context, opts lifecycle.ListOptions) ([]Event, error) {
	return s.repo.Store().List(ctx, opts)
}

func (s *Service) Update(ctx context.Context, id int64, input EventInput) (*Event, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	err := s.repo.Store().Update(ctx, id, map[string]any{
		"title":       input.Title,
		"description": input.Description,
		"location":    input.Location,
		"starts_at":   input.StartsAt,
		"ends_at":     input.EndsAt,
		"is_public":   input.IsPublic,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Store().Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Store().Delete(ctx, id)
}

func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.repo.Store().Restore(ctx, id)
}

func (s *Service) HardDelete(ctx context.Context, id int64) error {
	return s.repo.Store().HardDelete(ctx, id)
}
