// Package ledger provides business logic for the per-store earnings
// ledger: balance queries against the cached row and full
// recalculations from the authoritative order source.
//
// All writes run inside a unit of work holding the store's ledger row
// lock, so concurrent recalculations and withdrawal debits serialize on
// the database rather than on process state.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/config"
	"github.com/sellerhub/payouts/pkg/domain/events"
	"github.com/sellerhub/payouts/pkg/domain/ledger"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/eventbus"
	"github.com/sellerhub/payouts/pkg/money"
	"github.com/sellerhub/payouts/pkg/provider"
	"github.com/sellerhub/payouts/pkg/repository"
	"github.com/sellerhub/payouts/pkg/retry"
)

// sourceSums is one consistent snapshot of the order source.
type sourceSums struct {
	revenue    money.Amount
	commission money.Amount
}

// Service exposes balance queries and recalculation.
type Service struct {
	uow      repository.UnitOfWork
	orders   provider.OrdersSource
	recomp   *retry.Client
	eventBus eventbus.Bus
	cfg      config.Payouts
	logger   *slog.Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	return &Service{
		uow:      deps.Uow,
		orders:   deps.OrdersSource,
		recomp:   deps.Recompute,
		eventBus: deps.EventBus,
		cfg:      deps.Config.Payouts,
		logger:   deps.Logger.With("service", "ledger"),
	}
}

// GetBalance returns the store's balance view. A row recalculated
// within the freshness window is served as-is; anything older, and a
// store with no row yet, triggers a full recalculation first.
func (s *Service) GetBalance(ctx context.Context, storeID uuid.UUID) (*dto.LedgerRead, error) {
	var l *ledger.Ledger
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LedgerRepository()
		if err != nil {
			return err
		}
		l, err = repo.Get(ctx, storeID)
		return err
	})
	switch {
	case errors.Is(err, ledger.ErrLedgerNotFound):
		return s.Recalculate(ctx, storeID)
	case err != nil:
		return nil, err
	}

	if l.Fresh(s.cfg.FreshnessWindow, time.Now().UTC()) {
		read := toRead(l)
		return &read, nil
	}
	return s.Recalculate(ctx, storeID)
}

// Recalculate rebuilds the store's ledger from the authoritative order
// source and the completed-withdrawal sum, persists the row under lock
// and publishes the fresh view on the event bus.
//
// The source reads go through the retry client outside the transaction
// so the row lock is never held across network backoff.
func (s *Service) Recalculate(ctx context.Context, storeID uuid.UUID) (*dto.LedgerRead, error) {
	logger := s.logger.With("store_id", storeID)

	sums, err := retry.Do(ctx, s.recomp, "orders-source-sums",
		func(ctx context.Context) (sourceSums, error) {
			revenue, err := s.orders.SumCompletedOrderValue(ctx, storeID)
			if err != nil {
				return sourceSums{}, err
			}
			commission, err := s.orders.SumCommission(ctx, storeID)
			if err != nil {
				return sourceSums{}, err
			}
			return sourceSums{revenue: revenue, commission: commission}, nil
		})
	if err != nil {
		logger.Error("Recalculate failed: order source unreachable", "error", err)
		return nil, err
	}

	now := time.Now().UTC()
	var l *ledger.Ledger
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		ledgerRepo, err := uow.LedgerRepository()
		if err != nil {
			return err
		}
		withdrawalRepo, err := uow.WithdrawalRepository()
		if err != nil {
			return err
		}

		l, err = ledgerRepo.GetForUpdate(ctx, storeID)
		if errors.Is(err, ledger.ErrLedgerNotFound) {
			l, err = ledger.New(storeID, money.Code(s.cfg.Currency), s.cfg.DefaultCommissionRate)
		}
		if err != nil {
			return err
		}

		withdrawn, err := withdrawalRepo.SumCompleted(ctx, storeID)
		if err != nil {
			return err
		}

		currency := l.Currency
		clamped, err := l.Recompute(
			money.Must(sums.revenue, currency),
			money.Must(sums.commission, currency),
			money.Must(withdrawn, currency),
			now,
		)
		if err != nil {
			return err
		}
		if clamped {
			logger.Error("available balance clamped to zero",
				"error", ledger.ErrNegativeBalance,
				"revenue", sums.revenue,
				"commission", sums.commission,
				"withdrawn", withdrawn,
			)
		}
		return ledgerRepo.Upsert(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	read := toRead(l)
	if err := s.eventBus.Emit(ctx, &events.LedgerRecalculated{
		StoreID:       storeID,
		Ledger:        read,
		CorrelationID: uuid.New(),
		OccurredAt:    now,
	}); err != nil {
		// The row is already committed; subscribers catch up on the
		// next recalculation.
		logger.Warn("failed to publish LedgerRecalculated", "error", err)
	}
	logger.Info("ledger recalculated", "available", read.AvailableBalance)
	return &read, nil
}

func toRead(l *ledger.Ledger) dto.LedgerRead {
	return dto.LedgerRead{
		StoreID:                 l.StoreID,
		Currency:                l.Currency.String(),
		TotalRevenue:            l.TotalRevenue,
		TotalPlatformCommission: l.TotalPlatformCommission,
		TotalWithdrawn:          l.TotalWithdrawn,
		CommissionRate:          l.CommissionRate,
		AvailableBalance:        l.AvailableBalance,
		LastCalculatedAt:        l.LastCalculatedAt,
	}
}
