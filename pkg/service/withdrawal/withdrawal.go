// Package withdrawal provides business logic for the withdrawal request
// lifecycle: creation, status transitions, listing and the audit trail.
//
// Funds are reserved nowhere: the ledger is debited exactly once, inside
// the same transaction that moves a request to completed, while both the
// request row and the store's ledger row are locked. Two concurrent
// completions against the same balance therefore serialize, and the
// second one fails with ErrInsufficientBalance instead of double
// spending.
package withdrawal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/config"
	"github.com/sellerhub/payouts/pkg/domain/events"
	"github.com/sellerhub/payouts/pkg/domain/ledger"
	"github.com/sellerhub/payouts/pkg/domain/withdrawal"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/eventbus"
	"github.com/sellerhub/payouts/pkg/money"
	"github.com/sellerhub/payouts/pkg/repository"
)

// Service exposes the withdrawal request operations.
type Service struct {
	uow      repository.UnitOfWork
	eventBus eventbus.Bus
	cfg      config.Payouts
	logger   *slog.Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	return &Service{
		uow:      deps.Uow,
		eventBus: deps.EventBus,
		cfg:      deps.Config.Payouts,
		logger:   deps.Logger.With("service", "withdrawal"),
	}
}

// Create validates and persists a new pending request. The amount is
// checked against the platform minimum and the store's available
// balance under the ledger row lock; nothing is persisted when any
// check fails. Creation does not debit the ledger.
func (s *Service) Create(ctx context.Context, create dto.WithdrawalCreate) (*dto.WithdrawalRead, error) {
	logger := s.logger.With("store_id", create.StoreID)

	currency := money.Code(create.Currency)
	if create.Currency == "" {
		currency = money.Code(s.cfg.Currency)
	}
	amount, err := money.New(create.Amount, currency)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, withdrawal.ErrAmountMustBePositive
	}
	if create.Amount < s.cfg.MinWithdrawal {
		return nil, withdrawal.ErrBelowMinimumThreshold
	}

	method, err := withdrawal.ParseMethod(create.Method)
	if err != nil {
		return nil, err
	}
	details, err := withdrawal.UnmarshalDetails(method, create.Details)
	if err != nil {
		return nil, err
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	var r *withdrawal.Request
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		ledgerRepo, err := uow.LedgerRepository()
		if err != nil {
			return err
		}
		withdrawalRepo, err := uow.WithdrawalRepository()
		if err != nil {
			return err
		}
		historyRepo, err := uow.HistoryRepository()
		if err != nil {
			return err
		}

		l, err := ledgerRepo.GetForUpdate(ctx, create.StoreID)
		if errors.Is(err, ledger.ErrLedgerNotFound) {
			// No earnings recorded yet, so nothing is available.
			return ledger.ErrInsufficientBalance
		}
		if err != nil {
			return err
		}
		if over, err := amount.GreaterThan(l.Available()); err != nil {
			return err
		} else if over {
			return ledger.ErrInsufficientBalance
		}

		r, err = withdrawal.New().
			WithStoreID(create.StoreID).
			WithAmount(amount).
			WithDetails(details).
			WithNotes(create.Notes).
			WithRequestedBy(create.RequestedBy).
			Build()
		if err != nil {
			return err
		}
		if err := withdrawalRepo.Create(ctx, r); err != nil {
			return err
		}

		entry := withdrawal.NewHistoryEntry(
			r.ID, "", withdrawal.StatusPending, create.RequestedBy, create.Notes, r.CreatedAt)
		return historyRepo.Append(ctx, &entry)
	})
	if err != nil {
		logger.Error("Create failed", "error", err)
		return nil, err
	}

	if err := s.eventBus.Emit(ctx, &events.WithdrawalCreated{
		StoreID:      r.StoreID,
		WithdrawalID: r.ID,
		Amount:       r.Amount,
		OccurredAt:   r.CreatedAt,
	}); err != nil {
		logger.Warn("failed to publish WithdrawalCreated", "error", err)
	}
	logger.Info("withdrawal request created", "withdrawal_id", r.ID, "amount", r.Amount)
	read := toRead(r)
	return &read, nil
}

// Transition moves a request through its state machine. Completing a
// request debits the ledger in the same transaction, under both row
// locks. Re-applying a terminal status is an idempotent no-op that
// changes nothing and publishes nothing.
func (s *Service) Transition(ctx context.Context, cmd dto.WithdrawalTransition) (*dto.WithdrawalRead, error) {
	logger := s.logger.With("withdrawal_id", cmd.RequestID)

	to, err := withdrawal.ParseStatus(cmd.NewStatus)
	if err != nil {
		return nil, err
	}

	var (
		r    *withdrawal.Request
		from withdrawal.Status
		noop bool
	)
	now := time.Now().UTC()
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		withdrawalRepo, err := uow.WithdrawalRepository()
		if err != nil {
			return err
		}
		historyRepo, err := uow.HistoryRepository()
		if err != nil {
			return err
		}

		r, err = withdrawalRepo.GetForUpdate(ctx, cmd.RequestID)
		if err != nil {
			return err
		}
		if cmd.StoreID != uuid.Nil && r.StoreID != cmd.StoreID {
			return withdrawal.ErrRequestNotFound
		}

		from = r.Status
		noop, err = r.Apply(withdrawal.Transition{
			To:                   to,
			Actor:                cmd.Actor,
			Reason:               cmd.Reason,
			TransactionReference: cmd.TransactionReference,
			ProofURL:             cmd.ProofURL,
		}, now)
		if err != nil {
			return err
		}
		if noop {
			return nil
		}

		if to == withdrawal.StatusCompleted {
			ledgerRepo, err := uow.LedgerRepository()
			if err != nil {
				return err
			}
			l, err := ledgerRepo.GetForUpdate(ctx, r.StoreID)
			if err != nil {
				return err
			}
			if err := l.Debit(r.Amount, now); err != nil {
				return err
			}
			if err := ledgerRepo.Upsert(ctx, l); err != nil {
				return err
			}
		}

		if err := withdrawalRepo.Update(ctx, r); err != nil {
			return err
		}
		entry := withdrawal.NewHistoryEntry(r.ID, from, to, cmd.Actor, cmd.Reason, now)
		return historyRepo.Append(ctx, &entry)
	})
	if err != nil {
		logger.Error("Transition failed", "to", to, "error", err)
		return nil, err
	}

	if !noop {
		if err := s.eventBus.Emit(ctx, &events.WithdrawalTransitioned{
			StoreID:      r.StoreID,
			WithdrawalID: r.ID,
			OldStatus:    from.String(),
			NewStatus:    to.String(),
			ChangedBy:    cmd.Actor,
			OccurredAt:   now,
		}); err != nil {
			logger.Warn("failed to publish WithdrawalTransitioned", "error", err)
		}
		logger.Info("withdrawal transitioned", "from", from, "to", to)
	}
	read := toRead(r)
	return &read, nil
}

// Annotate appends an admin note to a request without touching its
// status. The store scope is checked under the row lock so a foreign
// request surfaces as not found, never as forbidden.
func (s *Service) Annotate(ctx context.Context, storeID, id uuid.UUID, note string) (*dto.WithdrawalRead, error) {
	var r *withdrawal.Request
	now := time.Now().UTC()
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.WithdrawalRepository()
		if err != nil {
			return err
		}
		r, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.StoreID != storeID {
			return withdrawal.ErrRequestNotFound
		}
		if err := r.Annotate(note, now); err != nil {
			return err
		}
		return repo.Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	read := toRead(r)
	return &read, nil
}

// Get returns one request.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*dto.WithdrawalRead, error) {
	var r *withdrawal.Request
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.WithdrawalRepository()
		if err != nil {
			return err
		}
		r, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	read := toRead(r)
	return &read, nil
}

// List returns the store's requests, newest first, narrowed by filter.
func (s *Service) List(ctx context.Context, storeID uuid.UUID, filter dto.WithdrawalFilter) ([]dto.WithdrawalRead, error) {
	var rs []*withdrawal.Request
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.WithdrawalRepository()
		if err != nil {
			return err
		}
		rs, err = repo.List(ctx, storeID, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.WithdrawalRead, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRead(r))
	}
	return out, nil
}

// History returns the request's full audit trail in transition order.
func (s *Service) History(ctx context.Context, withdrawalID uuid.UUID) ([]dto.HistoryRead, error) {
	var entries []withdrawal.StatusHistoryEntry
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.HistoryRepository()
		if err != nil {
			return err
		}
		entries, err = repo.List(ctx, withdrawalID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.HistoryRead, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.HistoryRead{
			WithdrawalID: e.WithdrawalID,
			Sequence:     e.Sequence,
			OldStatus:    e.OldStatus.String(),
			NewStatus:    e.NewStatus.String(),
			ChangedBy:    e.ChangedBy,
			Reason:       e.Reason,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out, nil
}

func toRead(r *withdrawal.Request) dto.WithdrawalRead {
	return dto.WithdrawalRead{
		ID:                   r.ID,
		StoreID:              r.StoreID,
		Amount:               r.Amount,
		Method:               r.Method.String(),
		Details:              r.Details,
		Status:               r.Status.String(),
		Notes:                r.Notes,
		AdminNotes:           r.AdminNotes,
		TransactionReference: r.TransactionReference,
		ProofURL:             r.ProofURL,
		RequestedBy:          r.RequestedBy,
		ProcessedBy:          r.ProcessedBy,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		ProcessingAt:         r.ProcessingAt,
		CompletedAt:          r.CompletedAt,
		FailedAt:             r.FailedAt,
		CancelledAt:          r.CancelledAt,
	}
}
