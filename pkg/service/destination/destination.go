// Package destination provides business logic for a store's saved
// payout destinations.
package destination

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/config"
	"github.com/sellerhub/payouts/pkg/domain/destination"
	"github.com/sellerhub/payouts/pkg/domain/withdrawal"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/repository"
)

// Service exposes the destination registry operations.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	return &Service{
		uow:    deps.Uow,
		logger: deps.Logger.With("service", "destination"),
	}
}

// Upsert creates a destination, or updates the one identified by
// upsert.ID. The details variant is validated against the declared
// method before anything is written.
func (s *Service) Upsert(ctx context.Context, upsert dto.DestinationUpsert) (*dto.DestinationRead, error) {
	method, err := withdrawal.ParseMethod(upsert.Method)
	if err != nil {
		return nil, err
	}
	details, err := withdrawal.UnmarshalDetails(method, upsert.Details)
	if err != nil {
		return nil, err
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	var d *destination.Destination
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.DestinationRepository()
		if err != nil {
			return err
		}

		if upsert.ID == uuid.Nil {
			d, err = destination.New(upsert.StoreID, upsert.Label, details)
			if err != nil {
				return err
			}
			return repo.Upsert(ctx, d)
		}

		d, err = repo.Get(ctx, upsert.StoreID, upsert.ID)
		if err != nil {
			return err
		}
		if upsert.Label == "" {
			return destination.ErrLabelRequired
		}
		d.Label = upsert.Label
		d.Method = method
		d.Details = details
		d.UpdatedAt = time.Now().UTC()
		return repo.Upsert(ctx, d)
	})
	if err != nil {
		s.logger.Error("Upsert failed", "store_id", upsert.StoreID, "error", err)
		return nil, err
	}
	read := toRead(d)
	return &read, nil
}

// Get returns one destination scoped to the store.
func (s *Service) Get(ctx context.Context, storeID, id uuid.UUID) (*dto.DestinationRead, error) {
	var d *destination.Destination
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.DestinationRepository()
		if err != nil {
			return err
		}
		d, err = repo.Get(ctx, storeID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	read := toRead(d)
	return &read, nil
}

// List returns the store's destinations.
func (s *Service) List(ctx context.Context, storeID uuid.UUID) ([]dto.DestinationRead, error) {
	var ds []*destination.Destination
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.DestinationRepository()
		if err != nil {
			return err
		}
		ds, err = repo.List(ctx, storeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.DestinationRead, 0, len(ds))
	for _, d := range ds {
		out = append(out, toRead(d))
	}
	return out, nil
}

// SetDefault marks one destination as the store's default. The clear
// and the set run in one transaction so the store never observes zero
// or two defaults.
func (s *Service) SetDefault(ctx context.Context, storeID, id uuid.UUID) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.DestinationRepository()
		if err != nil {
			return err
		}
		if _, err := repo.Get(ctx, storeID, id); err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, storeID); err != nil {
			return err
		}
		return repo.SetDefault(ctx, storeID, id)
	})
}

func toRead(d *destination.Destination) dto.DestinationRead {
	return dto.DestinationRead{
		ID:        d.ID,
		StoreID:   d.StoreID,
		Method:    d.Method.String(),
		Label:     d.Label,
		Details:   d.Details,
		IsDefault: d.IsDefault,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
